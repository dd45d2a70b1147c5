// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document and segment persistence
//   - Embedder: Generates vector embeddings for segments and queries
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//
// # Optional Interfaces
//
//   - LLMService: Answer generation. Without it, askdoc still ingests
//     and retrieves but cannot compose answers.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
