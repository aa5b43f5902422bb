package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/embedder"
	"github.com/ellenaj0/RepoDocGen/internal/engine"
	"github.com/ellenaj0/RepoDocGen/internal/llm"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

const embeddingDim = 32

// PipelineTestSuite exercises the full flow: analyze a repository,
// build the summary tree, chunk, embed, index, persist, restore, and
// answer retrieval queries.
type PipelineTestSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     config.Config
	storage storage.Store
	engine  *engine.Engine
	repo    string
}

func (s *PipelineTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.repo = s.T().TempDir()
	s.writeFixtures()
}

func (s *PipelineTestSuite) SetupTest() {
	s.cfg = config.Default()
	s.cfg.EmbeddingDim = embeddingDim
	s.cfg.Workers = 2

	store, err := storage.Open(":memory:")
	s.Require().NoError(err)
	s.storage = store

	s.engine = s.newEngine()
}

func (s *PipelineTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *PipelineTestSuite) newEngine() *engine.Engine {
	return engine.NewWithProviders(s.cfg, llm.NewLocalSummarizer(),
		embedder.NewLocalEmbedder(embeddingDim, embedder.NewCache(1000)))
}

func (s *PipelineTestSuite) writeFixtures() {
	files := map[string]string{
		"main.go": `package main

import "fmt"

func main() {
	fmt.Println(LookupUser("admin"))
}
`,
		"auth/session.go": `package auth

import "time"

// Session represents an authenticated user session.
type Session struct {
	Token   string
	UserID  string
	Expires time.Time
}

// Valid reports whether the session has not expired.
func (s *Session) Valid() bool {
	return time.Now().Before(s.Expires)
}
`,
		"auth/user.go": `package auth

// LookupUser returns the display name for a user ID.
func LookupUser(id string) string {
	return "user:" + id
}
`,
		"store/cache.py": `class LRUCache:
    def __init__(self, capacity):
        self.capacity = capacity
        self.entries = {}

    def get(self, key):
        return self.entries.get(key)
`,
	}
	for rel, content := range files {
		path := filepath.Join(s.repo, rel)
		s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
		s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	}
}

func (s *PipelineTestSuite) TestIndexBuildsCompleteRun() {
	stats, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)

	s.Equal(4, stats.Files)
	s.Zero(stats.FailedFiles)
	s.Greater(stats.Chunks, 0)
	s.Equal(stats.Chunks, stats.EmbeddedChunks)
	s.NotEmpty(stats.RunID)

	root, err := s.engine.Overview()
	s.Require().NoError(err)
	s.Require().NoError(root.Validate())
	s.Equal(types.LevelRepository, root.Level)

	// Every leaf corresponds to a discovered file
	leaves := 0
	root.Walk(func(n *types.SummaryNode) bool {
		if n.Level == types.LevelFile {
			leaves++
		}
		return true
	})
	s.Equal(stats.Files, leaves)
}

func (s *PipelineTestSuite) TestHybridQueryFindsRelevantCode() {
	_, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)

	results, err := s.engine.Query(s.ctx, "session token expires", 5)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)

	// The session type should dominate the ranking
	s.Contains(results[0].Source.String(), "session.go")
	s.Equal(1, results[0].Rank)
	for i := 1; i < len(results); i++ {
		s.GreaterOrEqual(results[i-1].FusedScore, results[i].FusedScore)
	}
}

func (s *PipelineTestSuite) TestQueryAcrossLanguages() {
	_, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)

	results, err := s.engine.Query(s.ctx, "LRUCache capacity", 5)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)
	s.Contains(results[0].Source.String(), "cache.py")
}

func (s *PipelineTestSuite) TestPersistAndRestoreRoundTrip() {
	stats, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)

	overview, err := s.engine.Overview()
	s.Require().NoError(err)

	err = s.storage.SaveRun(s.ctx, &storage.Run{
		ID:       s.engine.RunID(),
		Root:     s.engine.Root(),
		Analyses: s.engine.Analyses(),
		Summary:  overview,
		Chunks:   s.engine.Chunks(),
		Vectors:  s.engine.Vectors(),
		Warnings: s.engine.Warnings(),
	})
	s.Require().NoError(err)

	run, err := s.storage.LoadLatestRun(s.ctx, s.repo)
	s.Require().NoError(err)
	s.Equal(stats.RunID, run.ID)

	// A fresh engine restored from storage answers the same queries
	restored := s.newEngine()
	s.Require().NoError(restored.Restore(run.ID, run.Root, run.Analyses,
		run.Summary, run.Chunks, run.Vectors, run.Warnings))

	want, err := s.engine.Query(s.ctx, "lookup user display name", 3)
	s.Require().NoError(err)
	got, err := restored.Query(s.ctx, "lookup user display name", 3)
	s.Require().NoError(err)

	s.Require().Equal(len(want), len(got))
	for i := range want {
		s.Equal(want[i].ChunkID, got[i].ChunkID)
		s.InDelta(want[i].FusedScore, got[i].FusedScore, 1e-6)
	}
}

func (s *PipelineTestSuite) TestAskCitesRetrievedSources() {
	_, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)

	answer, sources, err := s.engine.Ask(s.ctx, "how are sessions validated", 3)
	s.Require().NoError(err)
	s.NotEmpty(answer)
	s.Require().NotEmpty(sources)
	s.LessOrEqual(len(sources), 3)
}

func (s *PipelineTestSuite) TestDegradedFileStillRetrievable() {
	broken := filepath.Join(s.repo, "broken.go")
	s.Require().NoError(os.WriteFile(broken, []byte("package main\n\n@@@ not a declaration @@@\n"), 0o644))
	defer os.Remove(broken)

	stats, err := s.engine.Index(s.ctx, s.repo)
	s.Require().NoError(err)
	s.Equal(1, stats.FailedFiles)

	// Raw content of the failed file is still chunked and searchable
	results, err := s.engine.Query(s.ctx, "not a declaration", 5)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)
	s.Contains(results[0].Source.String(), "broken.go")

	found := false
	for _, w := range s.engine.Warnings() {
		if w.Stage == "analyze" {
			found = true
		}
	}
	s.True(found, "expected an analyze warning for the broken file")
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}
