package cms

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/entremotivator/rentalappp1/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("cms",
	fx.Provide(func(cfg config.Config) Client {
		return New(cfg.WordPress)
	}),
)

// CMS accounts are never logged into through this service; the password only
// has to be unguessable.
func randomCMSPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
