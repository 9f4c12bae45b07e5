package validate

import (
	"strings"
	"testing"
)

func TestValidateEnvironmentJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "full manifest",
			doc: `{"name": "geo-training", "channels": ["pytorch", "conda-forge"],
				"dependencies": ["python=3.9", {"pip": ["rasterio==1.2.10"]}]}`,
		},
		{
			name: "minimal manifest",
			doc:  `{"name": "e", "dependencies": []}`,
		},
		{
			name:    "missing name",
			doc:     `{"dependencies": []}`,
			wantErr: true,
		},
		{
			name:    "missing dependencies",
			doc:     `{"name": "e"}`,
			wantErr: true,
		},
		{
			name:    "empty name",
			doc:     `{"name": "", "dependencies": []}`,
			wantErr: true,
		},
		{
			name:    "unknown top-level key",
			doc:     `{"name": "e", "dependencies": [], "prefix": "/opt/env"}`,
			wantErr: true,
		},
		{
			name:    "numeric dependency entry",
			doc:     `{"name": "e", "dependencies": [42]}`,
			wantErr: true,
		},
		{
			name:    "group with two keys",
			doc:     `{"name": "e", "dependencies": [{"pip": ["a"], "conda": ["b"]}]}`,
			wantErr: true,
		},
		{
			name:    "channels not strings",
			doc:     `{"name": "e", "channels": [1], "dependencies": []}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvironmentJSON([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEnvironmentJSON error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigJSON(t *testing.T) {
	valid := `{"config_dir": "./config", "snapshot_dir": "./snapshots",
		"work_dir": "./workspace", "temp_dir": "./tmp",
		"logging": {"level": "info", "file": "env-composer.log"}}`
	if err := ValidateConfigJSON([]byte(valid)); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	badLevel := `{"logging": {"level": "loud"}}`
	if err := ValidateConfigJSON([]byte(badLevel)); err == nil {
		t.Error("config with invalid log level accepted")
	}
}

func TestValidateAgainstSchemaBadJSON(t *testing.T) {
	err := ValidateEnvironmentJSON([]byte("{not json"))
	if err == nil {
		t.Fatal("broken JSON accepted")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("error = %v, want invalid JSON mention", err)
	}
}
