package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolConfig_ApplyDefaults(t *testing.T) {
	cfg := &PoolConfig{ConnString: "postgres://localhost/rsvp"}
	cfg.ApplyDefaults()

	require.Equal(t, int32(10), cfg.MaxConns)
	require.Equal(t, int32(1), cfg.MinConns)
	require.Equal(t, int32(3600), cfg.MaxConnLifetime)
	require.Equal(t, int32(1800), cfg.MaxConnIdleTime)
	require.Equal(t, int32(10), cfg.ConnectTimeout)
	require.NoError(t, cfg.Validate())
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PoolConfig
		wantErr bool
	}{
		{name: "missing connection string", cfg: PoolConfig{MaxConns: 5, MinConns: 1}, wantErr: true},
		{name: "min above max", cfg: PoolConfig{ConnString: "postgres://x", MaxConns: 1, MinConns: 2}, wantErr: true},
		{name: "valid", cfg: PoolConfig{ConnString: "postgres://x", MaxConns: 2, MinConns: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
