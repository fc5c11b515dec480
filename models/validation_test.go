package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Main Campus":    "main-campus",
		"server_room":    "server-room",
		"  Floor   1  ":  "floor-1",
		"Büro (Nord)":    "bro-nord",
		"---":            "",
		"Room-101":       "room-101",
		"UPPER lower 42": "upper-lower-42",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "Slugify(%q)", input)
	}
}

func TestValidateAndNormalizeMAC(t *testing.T) {
	require.NoError(t, ValidateMAC("AA:BB:CC:DD:EE:01"))
	require.NoError(t, ValidateMAC("aa-bb-cc-dd-ee-01"))
	assert.Equal(t, "aa:bb:cc:dd:ee:01", NormalizeMAC("AA-BB-CC-DD-EE-01"))

	for _, bad := range []string{"", "aabbccddee01", "aa:bb:cc:dd:ee", "zz:bb:cc:dd:ee:01"} {
		err := ValidateMAC(bad)
		require.Error(t, err, "ValidateMAC(%q)", bad)
		verr, ok := IsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "mac_address", verr.Field)
	}
}

func TestNetworkValidate(t *testing.T) {
	n := &Network{Name: "office", CIDR: "10.1.2.17/24", Gateway: "10.1.2.1"}
	require.NoError(t, n.Validate())
	assert.Equal(t, "10.1.2.0/24", n.CIDR)

	n = &Network{Name: "office", CIDR: "not-a-cidr"}
	err := n.Validate()
	verr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "cidr", verr.Field)

	n = &Network{Name: "office", CIDR: "2001:db8::/64"}
	_, ok = IsValidationError(n.Validate())
	assert.True(t, ok)

	n = &Network{Name: "office", CIDR: "10.1.2.0/24", Gateway: "10.9.9.1"}
	err = n.Validate()
	verr, ok = IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "gateway", verr.Field)
}

func TestAssetValidateDefaults(t *testing.T) {
	a := &Asset{Name: "pc-001"}
	require.NoError(t, a.Validate())
	assert.Equal(t, AssetTypeComputer, a.AssetType)
	assert.Equal(t, AssetActive, a.Status)

	a = &Asset{Name: "pc-001", AssetType: "TOASTER"}
	verr, ok := IsValidationError(a.Validate())
	require.True(t, ok)
	assert.Equal(t, "asset_type", verr.Field)

	a = &Asset{Name: "pc-001", Status: "GONE"}
	verr, ok = IsValidationError(a.Validate())
	require.True(t, ok)
	assert.Equal(t, "status", verr.Field)
}

func TestInterfaceValidate(t *testing.T) {
	mac := "AA-BB-CC-DD-EE-02"
	iface := &NetworkInterface{AssetID: 1, Identifier: "eth0", MACAddress: &mac}
	require.NoError(t, iface.Validate())
	assert.Equal(t, "aa:bb:cc:dd:ee:02", *iface.MACAddress)

	iface = &NetworkInterface{AssetID: 1}
	verr, ok := IsValidationError(iface.Validate())
	require.True(t, ok)
	assert.Equal(t, "identifier", verr.Field)

	iface = &NetworkInterface{AssetID: 1, Identifier: "eth0", Port: &Port{AssetID: 2, Name: "LAN"}}
	verr, ok = IsValidationError(iface.Validate())
	require.True(t, ok)
	assert.Equal(t, "port", verr.Field)
}

func TestGuestDeviceValidateAndActivity(t *testing.T) {
	now := time.Now()
	guest := &GuestDevice{
		MACAddress: "AA:BB:CC:DD:EE:03",
		ValidFrom:  now,
		ValidUntil: now.Add(24 * time.Hour),
	}
	require.NoError(t, guest.Validate())
	assert.Equal(t, "aa:bb:cc:dd:ee:03", guest.MACAddress)

	guest.ValidUntil = guest.ValidFrom
	verr, ok := IsValidationError(guest.Validate())
	require.True(t, ok)
	assert.Equal(t, "valid_until", verr.Field)

	guest = &GuestDevice{
		ApprovalStatus: GuestApproved,
		Enabled:        true,
		ValidFrom:      now.Add(-time.Hour),
		ValidUntil:     now.Add(time.Hour),
	}
	assert.True(t, guest.IsCurrentlyActive(now))
	assert.False(t, guest.IsCurrentlyActive(now.Add(2*time.Hour)))

	guest.Enabled = false
	assert.False(t, guest.IsCurrentlyActive(now))

	guest.Enabled = true
	guest.ApprovalStatus = GuestPending
	assert.False(t, guest.IsCurrentlyActive(now))
}
