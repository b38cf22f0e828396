package constant

type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

func (m MediaType) String() string {
	return string(m)
}

// IngestState is the position of a single upload in the ingest state machine.
type IngestState string

const (
	IngestStateReceived     IngestState = "RECEIVED"
	IngestStateValidated    IngestState = "VALIDATED"
	IngestStateHashed       IngestState = "HASHED"
	IngestStateDedupChecked IngestState = "DEDUP_CHECKED"
	IngestStateStored       IngestState = "STORED"
	IngestStateDerived      IngestState = "DERIVED_ASSETS_GENERATED"
	IngestStatePersisted    IngestState = "PERSISTED"
	IngestStateFailed       IngestState = "FAILED"
)

type BlobBackend string

const (
	BlobBackendFS     BlobBackend = "fs"
	BlobBackendMinIO  BlobBackend = "minio"
	BlobBackendMemory BlobBackend = "memory"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

const (
	RoutingKeyMediaIngested = "media.ingested"
	RoutingKeyMediaDeleted  = "media.deleted"
)

const UploadSecretHeader = "X-Upload-Secret"
