// Package types provides shared domain types for RepoDocGen.
//
// This package defines the data model used across the analysis,
// summarization, indexing, and retrieval components: file analyses,
// summary tree nodes, chunks, ranked results, and the error taxonomy.
//
// # Core Types
//
// FileAnalysis is the per-file output of a code analysis provider:
//
//	analysis := &types.FileAnalysis{
//	    Path:     "src/rag/search.py",
//	    Language: "python",
//	    Symbols: []types.Symbol{
//	        {Name: "HybridSearch", Kind: types.KindClass, StartLine: 10, EndLine: 92},
//	    },
//	}
//
// SummaryNode forms the file -> module -> repository summary tree:
//
//	root.Walk(func(n *types.SummaryNode) bool {
//	    fmt.Println(n.Level, n.ID)
//	    return true
//	})
//
// Chunk is the unit indexed by both the lexical and vector indices. Every
// chunk's SourceRef resolves to exactly one origin: a file region or a
// summary node.
//
// # Error Taxonomy
//
// Failures are classified by sentinel, matched with errors.Is:
//
//	types.ErrParse      // degrade to placeholder, continue
//	types.ErrProvider   // retry once reduced, then degrade or exclude
//	types.ErrConfig     // fatal, fails fast before provider calls
//	types.ErrIndexState // fatal for the offending call only
//
// Failures local to one file, chunk, or node never abort a run; a run
// completes with recorded warnings instead.
package types
