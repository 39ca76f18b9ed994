//go:build conntest

package conntest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/internal/db"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestStandardConnection_UserPassword(t *testing.T) {
	pool := connectWithConfig(t, parseStdConnString(t))
	pingSucceeds(t, pool)

	assert.Contains(t, queryVersion(t, pool), "PostgreSQL")
}

func TestStandardConnection_WrongPassword(t *testing.T) {
	config := parseStdConnString(t)
	config.Password = "not-the-password"

	connector, err := db.NewConnector(config)
	require.NoError(t, err)

	_, err = connector.Connect(context.Background())
	require.Error(t, err)
	assert.Regexp(t, "password|authentication", err.Error())
}

func TestStandardConnection_CheckoutRoundTrip(t *testing.T) {
	config := parseStdConnString(t)
	config.SSLMode = "disable"

	checkoutRoundTrip(t, db.BuildConnectionString(config), tilevault.AuthMethodStandard)
}
