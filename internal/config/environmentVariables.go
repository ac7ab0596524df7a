package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = false //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5
	CacheSimilarityCutoff           = 0.97

	EmbeddingOutputDimensionality int32 = 1536

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second

	//scope registry collection - one point per indexed folder path
	RegistryCollection = "scope-registry"

	//retrieval
	RetrievalTopK        = 5
	RelevanceStaticFloor = float32(0.3)
	//effective cutoff per query = max(floor, DynamicThresholdRatio * avg(top 2 scores))
	DynamicThresholdRatio = float32(0.7)

	//ingestion
	MetadataHeaderLimit = 800 //chars of metadata prepended to a document before chunking
	StructureMaxDepth   = 10  //structure preview only - ingestion itself is unbounded

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"

	//set LLM_PROVIDER=openai to use the OpenAI clients instead of Gemini
	OpenAIChatModel      = "gpt-4o"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	ModelTemperature float32 = 0.7
	ModelContext             = "You are a document search assistant. Answer strictly from the supplied context. " +
		"If the context does not contain the answer, say so explicitly instead of guessing."

	//returned verbatim when retrieval comes back empty - the LLM is never called then
	NoResultsMessage = "No matching content was found in the indexed folder for this question."

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//drive
	DriveCredentialsFile = "credentials.json"
	DriveTokenFile       = "token.json"
	DrivePageSize        = 100

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)

// secrets and per-deployment switches come from the environment
var (
	NoAuthBypass = os.Getenv("AUTH_BYPASS") == "1"
	AuthToken    = os.Getenv("API_AUTH_TOKEN")

	RedisPassword = os.Getenv("REDIS_PASSWORD")

	GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	LLMProvider = os.Getenv("LLM_PROVIDER") //"" or "gemini" or "openai"
)
