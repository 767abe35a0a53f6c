package ingestion

// Stage names as recorded in traces and session error_stage fields.
const (
	StageAcquire  = "acquisition"
	StageValidate = "validation"
	StageExtract  = "extraction"
	StageChunk    = "chunking"
	StageGenerate = "generation"
	StageQuality  = "quality_check"
	StageEmbed    = "embedding"
	StageStore    = "storage"
	StageTimeout  = "timeout"
)
