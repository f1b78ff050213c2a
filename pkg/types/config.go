package types

// Config holds backend selection and parameters for attaching the stores.
type Config struct {
	DataDir       string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	RecordBackend string `json:"record_backend" yaml:"record_backend" mapstructure:"record_backend"`
}

// Supported record backends. Both persist the text-keyed record store; blobs
// always live in SQLite.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// knownBackends lists the record backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendFile: true,
	BackendBolt: true,
}

// Backend returns the effective record backend. An empty value means file.
func (c Config) Backend() string {
	if c.RecordBackend == "" {
		return BackendFile
	}
	return c.RecordBackend
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if !knownBackends[c.Backend()] {
		return ErrBackendUnknown
	}
	return nil
}
