package debian

import (
	"os"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

// getEnvs returns the first set value among the given environment variables.
func getEnvs(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Author determines the packager's "Name <email>" identity from the
// conventional Debian environment variables. A new changelog entry cannot be
// created without it, so a missing value is fatal and carries remediation
// guidance.
func Author() (string, error) {
	name, ok := getEnvs("DEBFULLNAME", "NAME")
	if !ok {
		return "", errors.New(errors.ErrCodeMissingIdentity,
			"unable to determine your name; please set $DEBFULLNAME or $NAME")
	}
	email, ok := getEnvs("DEBEMAIL", "EMAIL")
	if !ok {
		return "", errors.New(errors.ErrCodeMissingIdentity,
			"unable to determine your email; please set $DEBEMAIL or $EMAIL")
	}
	return name + " <" + email + ">", nil
}
