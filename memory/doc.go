// Package memory implements the per-user memory engine: interventions with
// semantic embeddings, similarity retrieval, TTL-based decay, and
// end-of-session reflection synthesis.
//
// Records are namespaced by UserID; no operation reads or ranks across users.
//
// Architecture:
//   - Store: append-only record storage with exact cosine search
//     (in-process for the local SDK, Redis for production)
//   - Embedder: text-to-vector conversion (mock for testing, ONNX locally)
//     with retry and cache wrappers
//   - TextGenerator: reflection text generation (Anthropic adapter provided)
//   - Assembler: builds the personalization bundle handed to the session layer
//   - Synthesizer: distills one insight per session close
//   - Sweeper: periodic physical removal of expired records; visibility is
//     already enforced lazily on every read path
//   - Manager: the surface consumed by the session and tool-dispatch layers
//
// Everything the manager does is best-effort and additive: external-capability
// failures degrade the calling operation (empty bundle, skipped reflection)
// and are logged, never raised as fatal to the surrounding conversation.
package memory
