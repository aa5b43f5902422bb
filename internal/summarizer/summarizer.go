// Package summarizer builds the hierarchical summary tree: one summary per
// file, module summaries per directory, and a single repository overview.
// Every provider call is kept within the configured token budget; oversized
// inputs are split into ordered sub-groups and reduced by
// summary-of-summaries. Provider failures degrade individual nodes instead
// of aborting the run.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/llm"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Per-level output caps for provider calls, in tokens
const (
	fileSummaryTokens   = 200
	moduleSummaryTokens = 300
	repoSummaryTokens   = 400
)

// GroupFunc maps a file path to its module grouping key. The default
// groups by parent directory.
type GroupFunc func(filePath string) string

// ProgressiveSummarizer reduces file analyses bottom-up into a summary
// tree rooted at a single repository node.
type ProgressiveSummarizer struct {
	cfg   config.Config
	llm   llm.Summarizer
	group GroupFunc
}

// Option configures a ProgressiveSummarizer
type Option func(*ProgressiveSummarizer)

// WithGroupFunc overrides the default directory-based grouping
func WithGroupFunc(fn GroupFunc) Option {
	return func(s *ProgressiveSummarizer) {
		s.group = fn
	}
}

// New creates a summarizer using the given provider
func New(cfg config.Config, provider llm.Summarizer, opts ...Option) *ProgressiveSummarizer {
	s := &ProgressiveSummarizer{
		cfg:   cfg,
		llm:   provider,
		group: path.Dir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run collects warnings for one Summarize invocation
type run struct {
	mu       sync.Mutex
	warnings []types.Warning
}

func (r *run) warn(stage, subject, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, types.Warning{Stage: stage, Subject: subject, Message: message})
}

// Summarize builds the full summary tree for the given analyses. The
// returned warnings record every degraded node; the error is non-nil only
// for empty input or cancellation, never for per-node provider failures.
func (s *ProgressiveSummarizer) Summarize(ctx context.Context, analyses []types.FileAnalysis) (*types.SummaryNode, []types.Warning, error) {
	if len(analyses) == 0 {
		return nil, nil, fmt.Errorf("no files to summarize")
	}

	// Sort by path so the tree shape and call order are reproducible
	sorted := make([]types.FileAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	rn := &run{}

	fileNodes, err := s.summarizeFiles(ctx, sorted, rn)
	if err != nil {
		return nil, rn.warnings, err
	}

	root, err := s.buildTree(ctx, fileNodes, rn)
	if err != nil {
		return nil, rn.warnings, err
	}

	return root, rn.warnings, nil
}

// summarizeFiles produces one leaf node per analysis, in input order.
// Files are summarized concurrently with a bounded worker count.
func (s *ProgressiveSummarizer) summarizeFiles(ctx context.Context, analyses []types.FileAnalysis, rn *run) ([]*types.SummaryNode, error) {
	nodes := make([]*types.SummaryNode, len(analyses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i := range analyses {
		i := i
		g.Go(func() error {
			node, err := s.summarizeFile(gctx, &analyses[i], rn)
			if err != nil {
				return err
			}
			nodes[i] = node
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// summarizeFile builds a single file leaf. Failed analyses get a
// deterministic placeholder without a provider call.
func (s *ProgressiveSummarizer) summarizeFile(ctx context.Context, a *types.FileAnalysis, rn *run) (*types.SummaryNode, error) {
	node := &types.SummaryNode{
		Level:   types.LevelFile,
		ID:      a.Path,
		Sources: []string{a.Path},
	}

	if a.Failed {
		node.Text = fallbackFileSummary(a)
		node.Degraded = true
		node.TokenCount = types.EstimateTokenCount(node.Text)
		rn.warn("analyze", a.Path, "analysis failed, using placeholder summary: "+a.Error)
		return node, nil
	}

	text, degraded, err := s.reduce(ctx, fileHeader(a), symbolLines(a), fileSummaryTokens, a.Path, rn)
	if err != nil {
		return nil, err
	}
	if degraded {
		text = fallbackFileSummary(a)
	}

	node.Text = text
	node.Degraded = degraded
	node.TokenCount = types.EstimateTokenCount(text)
	return node, nil
}

// buildTree groups file leaves into module nodes by directory, merges
// directories upward level by level, and caps the tree with a repository
// root. Parents are only summarized after all of their children are final.
func (s *ProgressiveSummarizer) buildTree(ctx context.Context, fileNodes []*types.SummaryNode, rn *run) (*types.SummaryNode, error) {
	// children holds, per directory, the nodes (files then sub-modules)
	// waiting for a module summary
	children := make(map[string][]*types.SummaryNode)
	for _, node := range fileNodes {
		dir := normalizeDir(s.group(node.ID))
		children[dir] = append(children[dir], node)
	}

	// Ensure every ancestor directory exists so merging proceeds one
	// level at a time without skipping
	for dir := range children {
		for d := parentDir(dir); ; d = parentDir(d) {
			if _, ok := children[d]; !ok {
				children[d] = nil
			}
			if d == "." {
				break
			}
		}
	}

	for depth := maxDepth(children); depth >= 0; depth-- {
		dirs := dirsAtDepth(children, depth)

		modules := make([]*types.SummaryNode, len(dirs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)

		for i, dir := range dirs {
			i, dir := i, dir
			g.Go(func() error {
				node, err := s.summarizeModule(gctx, dir, children[dir], rn)
				if err != nil {
					return err
				}
				modules[i] = node
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, dir := range dirs {
			delete(children, dir)
			if dir == "." {
				return s.summarizeRepo(ctx, []*types.SummaryNode{modules[i]}, rn)
			}
			parent := parentDir(dir)
			children[parent] = append(children[parent], modules[i])
		}
	}

	return nil, fmt.Errorf("summary tree never reached the root")
}

// summarizeModule produces a module node from its children's summaries
func (s *ProgressiveSummarizer) summarizeModule(ctx context.Context, dir string, nodes []*types.SummaryNode, rn *run) (*types.SummaryNode, error) {
	// Files first, then sub-modules, each alphabetical
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level == types.LevelFile
		}
		return nodes[i].ID < nodes[j].ID
	})

	sources := make([]string, len(nodes))
	items := make([]string, len(nodes))
	for i, n := range nodes {
		sources[i] = n.ID
		items[i] = fmt.Sprintf("%s: %s", n.ID, n.Text)
	}

	text, degraded, err := s.reduce(ctx, moduleHeader(dir), items, moduleSummaryTokens, dir, rn)
	if err != nil {
		return nil, err
	}
	if degraded {
		text = fallbackGroupSummary(dir, len(nodes))
	}

	return &types.SummaryNode{
		Level:      types.LevelModule,
		ID:         dir,
		Text:       text,
		Sources:    sources,
		TokenCount: types.EstimateTokenCount(text),
		Degraded:   degraded,
		Children:   nodes,
	}, nil
}

// summarizeRepo produces the single repository root above the top modules
func (s *ProgressiveSummarizer) summarizeRepo(ctx context.Context, modules []*types.SummaryNode, rn *run) (*types.SummaryNode, error) {
	sources := make([]string, len(modules))
	items := make([]string, len(modules))
	for i, m := range modules {
		sources[i] = m.ID
		items[i] = fmt.Sprintf("%s: %s", displayDir(m.ID), m.Text)
	}

	text, degraded, err := s.reduce(ctx, repoHeader, items, repoSummaryTokens, "repository", rn)
	if err != nil {
		return nil, err
	}
	if degraded {
		text = fallbackGroupSummary("repository", len(modules))
	}

	return &types.SummaryNode{
		Level:      types.LevelRepository,
		ID:         "repository",
		Text:       text,
		Sources:    sources,
		TokenCount: types.EstimateTokenCount(text),
		Degraded:   degraded,
		Children:   modules,
	}, nil
}

// reduce summarizes header+items within the token budget. When the full
// prompt fits, one provider call is made. Otherwise the items are packed
// into ordered sub-groups that each fit, summarized separately, and the
// partial summaries are reduced again. The returned degraded flag is set
// when the provider failed and the caller must substitute a placeholder.
func (s *ProgressiveSummarizer) reduce(ctx context.Context, header string, items []string, maxTokens int, subject string, rn *run) (string, bool, error) {
	budgetChars := s.cfg.TokenBudget * types.CharsPerToken

	prompt := header + strings.Join(items, "\n")
	if len(prompt) <= budgetChars || len(items) <= 1 {
		if len(prompt) > budgetChars {
			// A single item alone exceeds the budget; hard-truncate
			prompt = truncateChars(prompt, budgetChars)
		}
		return s.call(ctx, prompt, maxTokens, subject, rn)
	}

	groups := packItems(header, items, budgetChars)

	// Cap each partial so at least two pack into a merge group. Without
	// the cap a provider filling its output allowance can hand back
	// partials larger than the budget, which regroup one per group and
	// the recursion never shrinks its input.
	partCap := (budgetChars-len(mergeHeader))/2 - 1
	if partCap < 1 {
		rn.warn("summarize", subject, "token budget too small to merge partial summaries, using placeholder")
		return "", true, nil
	}

	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		groupPrompt := header + strings.Join(group, "\n")
		if len(groupPrompt) > budgetChars {
			// A single item larger than the whole budget; hard-truncate
			groupPrompt = truncateChars(groupPrompt, budgetChars)
		}
		part, degraded, err := s.call(ctx, groupPrompt, maxTokens, subject, rn)
		if err != nil {
			return "", false, err
		}
		if degraded {
			return "", true, nil
		}
		parts = append(parts, truncateChars(part, partCap))
	}

	return s.reduce(ctx, mergeHeader, parts, maxTokens, subject, rn)
}

// truncateChars cuts s to at most n bytes without splitting a rune
func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// packItems splits items into ordered groups such that header plus each
// group stays within budgetChars. An item that alone exceeds the budget
// forms its own group and is truncated at call time.
func packItems(header string, items []string, budgetChars int) [][]string {
	avail := budgetChars - len(header)

	var groups [][]string
	var cur []string
	size := 0

	for _, item := range items {
		if len(cur) > 0 && size+len(item)+1 > avail {
			groups = append(groups, cur)
			cur = nil
			size = 0
		}
		cur = append(cur, item)
		size += len(item) + 1
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// call invokes the provider once, retrying a failure a single time with
// the prompt hard-truncated to half the budget. A second failure degrades
// the node and records a warning.
func (s *ProgressiveSummarizer) call(ctx context.Context, prompt string, maxTokens int, subject string, rn *run) (string, bool, error) {
	text, err := s.llm.Summarize(ctx, prompt, maxTokens)
	if err == nil {
		return strings.TrimSpace(text), false, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	if !errors.Is(err, types.ErrProvider) {
		return "", false, err
	}

	halfChars := s.cfg.TokenBudget / 2 * types.CharsPerToken
	retryPrompt := truncateChars(prompt, halfChars)

	text, retryErr := s.llm.Summarize(ctx, retryPrompt, maxTokens)
	if retryErr == nil {
		return strings.TrimSpace(text), false, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	rn.warn("summarize", subject, "provider failed twice, using placeholder: "+retryErr.Error())
	return "", true, nil
}

func normalizeDir(dir string) string {
	dir = path.Clean(dir)
	if dir == "" || dir == "/" {
		return "."
	}
	return dir
}

func parentDir(dir string) string {
	if dir == "." {
		return "."
	}
	return normalizeDir(path.Dir(dir))
}

func dirDepth(dir string) int {
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

func maxDepth(children map[string][]*types.SummaryNode) int {
	max := 0
	for dir := range children {
		if d := dirDepth(dir); d > max {
			max = d
		}
	}
	return max
}

func dirsAtDepth(children map[string][]*types.SummaryNode, depth int) []string {
	var dirs []string
	for dir := range children {
		if dirDepth(dir) == depth {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}
