package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigTypes(t *testing.T) {
	t.Run("KademliaConfig", func(t *testing.T) {
		k := KademliaConfig{K: 20, Alpha: 3}
		assert.Equal(t, 20, k.K)
		assert.Equal(t, 3, k.Alpha)
	})

	t.Run("MaintenanceConfig", func(t *testing.T) {
		m := MaintenanceConfig{
			RepublishInterval: time.Hour,
			RefreshInterval:   time.Hour,
			CullInterval:      10 * time.Minute,
		}
		assert.Equal(t, time.Hour, m.RepublishInterval)
		assert.Equal(t, 10*time.Minute, m.CullInterval)
	})

	t.Run("TrustAnchorConfig", func(t *testing.T) {
		anchor := TrustAnchorConfig{
			Chain:   "ethereum",
			RPCURL:  "https://eth-mainnet.example.com",
			Address: "0x1234567890123456789012345678901234567890",
		}
		assert.Equal(t, "ethereum", anchor.Chain)
		assert.Equal(t, "https://eth-mainnet.example.com", anchor.RPCURL)
	})

	t.Run("AdminWSConfig", func(t *testing.T) {
		admin := AdminWSConfig{Enabled: true, Listen: "127.0.0.1:7947"}
		assert.True(t, admin.Enabled)
		assert.Equal(t, "127.0.0.1:7947", admin.Listen)
	})
}

func TestResolveTrustAnchorRPC(t *testing.T) {
	t.Run("explicit RPCURL wins", func(t *testing.T) {
		anchor := TrustAnchorConfig{Chain: "ethereum", RPCURL: "https://custom.example.com"}
		assert.Equal(t, "https://custom.example.com", ResolveTrustAnchorRPC(anchor, "mainnet"))
	})

	t.Run("falls back to preset", func(t *testing.T) {
		anchor := TrustAnchorConfig{Chain: "solana"}
		assert.Equal(t, "https://api.devnet.solana.com", ResolveTrustAnchorRPC(anchor, "devnet"))
	})

	t.Run("unknown preset returns empty", func(t *testing.T) {
		anchor := TrustAnchorConfig{Chain: "ethereum"}
		assert.Equal(t, "", ResolveTrustAnchorRPC(anchor, "nonexistent"))
	})
}
