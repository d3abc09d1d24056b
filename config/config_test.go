package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/usbdcore/device"
)

func TestParseDefaults(t *testing.T) {
	identity, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if identity.Version.Major != 1 || identity.Version.Minor != 0 {
		t.Errorf("default version = %d.%d, want 1.0", identity.Version.Major, identity.Version.Minor)
	}
	if identity.Power.MaxMilliAmps != 100 {
		t.Errorf("default max_milliamps = %d, want 100", identity.Power.MaxMilliAmps)
	}
	if identity.Power.SelfPowered {
		t.Error("default self_powered = true, want false")
	}
}

func TestParseDocument(t *testing.T) {
	doc := `
vendor_id: 0x1209
product_id: 0x0001
version:
  major: 2
  minor: 5
power:
  max_milliamps: 250
  self_powered: true
strings:
  manufacturer: Acme
  product: Widget
  serial: "0042"
`
	identity, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if identity.VendorID != 0x1209 || identity.ProductID != 0x0001 {
		t.Errorf("IDs = %04X:%04X, want 1209:0001", identity.VendorID, identity.ProductID)
	}
	if identity.Version.Major != 2 || identity.Version.Minor != 5 {
		t.Errorf("version = %d.%d, want 2.5", identity.Version.Major, identity.Version.Minor)
	}
	if !identity.Power.SelfPowered || identity.Power.MaxMilliAmps != 250 {
		t.Errorf("power = %+v", identity.Power)
	}
	if identity.Strings.Serial != "0042" {
		t.Errorf("serial = %q, want %q", identity.Strings.Serial, "0042")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "version: ["},
		{"version too large", "version: {major: 100, minor: 0}"},
		{"power too large", "power: {max_milliamps: 501}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatal("Parse() error = nil, want non-nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	doc := []byte("vendor_id: 0xCAFE\nproduct_id: 0xF00D\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	identity, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if identity.VendorID != 0xCAFE || identity.ProductID != 0xF00D {
		t.Fatalf("IDs = %04X:%04X, want CAFE:F00D", identity.VendorID, identity.ProductID)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() of missing file error = nil, want non-nil")
	}
}

func TestDeviceConfig(t *testing.T) {
	identity := Default()
	identity.VendorID = 0x1209
	identity.Version = VersionConfig{Major: 1, Minor: 23}
	identity.Strings.Product = "Widget"

	cfg := identity.DeviceConfig()
	if cfg.VendorID != 0x1209 {
		t.Errorf("VendorID = %04X, want 1209", cfg.VendorID)
	}
	if cfg.DeviceVersion != 0x0123 {
		t.Errorf("DeviceVersion = %04X, want 0123", cfg.DeviceVersion)
	}
	// Only the product string exists, but its index stays fixed.
	if cfg.ManufacturerIndex != 0 || cfg.ProductIndex != 2 || cfg.SerialNumberIndex != 0 {
		t.Errorf("string indices = %d/%d/%d, want 0/2/0",
			cfg.ManufacturerIndex, cfg.ProductIndex, cfg.SerialNumberIndex)
	}
}

func TestStringTable(t *testing.T) {
	identity := Default()
	identity.Strings.Manufacturer = "Acme"
	identity.Strings.Product = "Widget"

	table := identity.StringTable()

	// Index 0 is the language descriptor, served for any language ID.
	langs := table.Lookup(0, 0)
	if len(langs) != 4 || langs[1] != device.DescriptorTypeString {
		t.Fatalf("language descriptor = % X", langs)
	}
	if langs[2] != 0x09 || langs[3] != 0x04 {
		t.Fatalf("language descriptor = % X, want US English", langs)
	}

	mfr := table.Lookup(1, device.LangIDUSEnglish)
	if mfr == nil || int(mfr[0]) != 2+len("Acme")*2 {
		t.Fatalf("manufacturer descriptor = % X", mfr)
	}
	if table.Lookup(1, 0x0407) != nil {
		t.Fatal("descriptor served for an unsupported language")
	}

	// The serial string is absent.
	if table.Lookup(3, device.LangIDUSEnglish) != nil {
		t.Fatal("descriptor served for an absent string")
	}
	if table.Lookup(9, device.LangIDUSEnglish) != nil {
		t.Fatal("descriptor served for an out-of-range index")
	}
}
