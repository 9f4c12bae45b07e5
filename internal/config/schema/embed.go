package schema

import _ "embed"

//go:embed environment.schema.json
var EnvironmentSchema []byte

//go:embed env-composer-config.schema.json
var ConfigSchema []byte
