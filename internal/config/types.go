package config

// Config is the top-level perch configuration, corresponding to .perch.yml.
// Secrets may also come from PERCH_* environment variables, which override
// the file.
type Config struct {
	// App-level OAuth1 consumer credentials. Required for everything.
	ConsumerKey    string `yaml:"consumer_key" koanf:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret" koanf:"consumer_secret"`

	// Account-level OAuth1 access credentials, obtained via `perch auth`.
	// Required by the reply loop only.
	AccessToken  string `yaml:"access_token" koanf:"access_token"`
	AccessSecret string `yaml:"access_secret" koanf:"access_secret"`

	// Completion model used to generate replies.
	Model string `yaml:"model" koanf:"model"`

	// Persona is the system instruction prefix for generated replies.
	Persona string `yaml:"persona" koanf:"persona"`

	// PollInterval is the loop sleep between iterations, in seconds.
	PollInterval int `yaml:"poll_interval" koanf:"poll_interval"`

	// Port for the local authorization callback server.
	Port int `yaml:"port" koanf:"port"`

	// Curated list whose members enrich the reply prompt.
	ListOwner string `yaml:"list_owner" koanf:"list_owner"`
	ListSlug  string `yaml:"list_slug" koanf:"list_slug"`

	// Account whose public push events are announced. Empty disables the
	// commit announcer.
	GitHubUser string `yaml:"github_user" koanf:"github_user"`
	GitHubHost string `yaml:"github_host" koanf:"github_host"`

	// DataDir holds the cursor database.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`
}
