// Package gemini implements ai.AIProvider on Google Gemini through the
// google.golang.org/genai SDK.
//
// Research plans use schema-constrained output (ResponseMIMEType
// application/json plus a ResponseSchema), so the model cannot return
// anything but a plan object. Embeddings use the RETRIEVAL_DOCUMENT task type.
//
//	provider, err := gemini.NewProvider(ctx, ai.NewConfig(
//	    ai.WithProvider(ai.ProviderGemini),
//	    ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ai.WithEmbeddingModel("text-embedding-004"),
//	    ai.WithReasoningModel("gemini-2.0-flash"),
//	))
package gemini
