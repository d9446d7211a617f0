// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorIndex: Exact flat vector storage/search with dense row ids
//   - ChunkStore: Chunk metadata persistence keyed by vector row id
//   - DocumentRegistry: Per-document dedup and versioning state
//   - LexicalScorer: BM25 keyword scoring over the chunk corpus
//   - Loader: Produces content plus a trusted content hash
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it,
//     semantic search is disabled and hybrid degrades to keyword-only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
