package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credentials is the opaque MAGEID/TOKEN pair the vendor issues for download
// access. Both values ride as HTTP basic auth on every catalog and file
// request. They are loaded once at startup and threaded explicitly into the
// client; nothing reads the environment mid-run.
type Credentials struct {
	MageID string
	Token  string
}

// CredentialsFromEnv reads MAGEID and TOKEN from the process environment.
// A .env file in the working directory is loaded first when present;
// already-exported variables win over .env values.
func CredentialsFromEnv() (Credentials, error) {
	// A missing .env is fine, the variables may be exported directly.
	_ = godotenv.Load()

	creds := Credentials{
		MageID: os.Getenv("MAGEID"),
		Token:  os.Getenv("TOKEN"),
	}
	switch {
	case creds.MageID == "" && creds.Token == "":
		return Credentials{}, fmt.Errorf("MAGEID and TOKEN environment variables are not set")
	case creds.MageID == "":
		return Credentials{}, fmt.Errorf("MAGEID environment variable is not set")
	case creds.Token == "":
		return Credentials{}, fmt.Errorf("TOKEN environment variable is not set")
	}
	return creds, nil
}
