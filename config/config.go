// Package config loads the enumeration identity of a USB device from
// YAML: vendor and product IDs, the BCD release version, power
// attributes, and the strings reported through string descriptors.
//
// All values have defaults, so an empty document is valid:
//
//	identity, err := config.Load("identity.yaml")
//	if err != nil {
//	    ...
//	}
//	cfg := identity.DeviceConfig()
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/usbdcore/device"
	"github.com/ardnew/usbdcore/pkg"
)

// Identity is the enumeration-visible identity of a device.
type Identity struct {
	VendorID  uint16        `yaml:"vendor_id"`
	ProductID uint16        `yaml:"product_id"`
	Version   VersionConfig `yaml:"version"`
	Power     PowerConfig   `yaml:"power"`
	Strings   StringsConfig `yaml:"strings"`
}

// VersionConfig is the device release number, encoded as BCD in the
// device descriptor. Major and minor are limited to two decimal digits.
type VersionConfig struct {
	Major uint8 `yaml:"major"`
	Minor uint8 `yaml:"minor"`
}

// PowerConfig describes the power attributes advertised in the
// configuration descriptor.
type PowerConfig struct {
	MaxMilliAmps uint16 `yaml:"max_milliamps"`
	SelfPowered  bool   `yaml:"self_powered"`
}

// StringsConfig holds the strings reported through string descriptors.
// Empty strings omit the corresponding descriptor.
type StringsConfig struct {
	Manufacturer string `yaml:"manufacturer"`
	Product      string `yaml:"product"`
	Serial       string `yaml:"serial"`
}

// Default returns an Identity with sensible defaults.
func Default() *Identity {
	return &Identity{
		Version: VersionConfig{Major: 1, Minor: 0},
		Power:   PowerConfig{MaxMilliAmps: 100},
	}
}

// Load reads and validates an identity file.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	identity, err := Parse(data)
	if err != nil {
		return nil, err
	}
	pkg.LogDebug(pkg.ComponentConfig, "identity loaded",
		"path", path,
		"vendor_id", fmt.Sprintf("0x%04X", identity.VendorID),
		"product_id", fmt.Sprintf("0x%04X", identity.ProductID))
	return identity, nil
}

// Parse unmarshals and validates an identity document. Fields absent
// from the document keep their defaults.
func Parse(data []byte) (*Identity, error) {
	identity := Default()
	if err := yaml.Unmarshal(data, identity); err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("validating identity: %w", err)
	}
	return identity, nil
}

// Validate checks the identity against descriptor field limits.
func (i *Identity) Validate() error {
	if i.Version.Major > 99 || i.Version.Minor > 99 {
		return fmt.Errorf("version %d.%d: components must be at most 99",
			i.Version.Major, i.Version.Minor)
	}
	if i.Power.MaxMilliAmps > 500 {
		return fmt.Errorf("max_milliamps %d: USB 2.0 allows at most 500 mA",
			i.Power.MaxMilliAmps)
	}
	return nil
}

// DeviceConfig converts the identity into the device core's descriptor
// configuration. String descriptor indices are assigned in the fixed
// order used by Strings (manufacturer 1, product 2, serial 3) for the
// strings that are present.
func (i *Identity) DeviceConfig() device.Config {
	cfg := device.Config{
		VendorID:          i.VendorID,
		ProductID:         i.ProductID,
		DeviceVersion:     device.VersionBCD(i.Version.Major, i.Version.Minor),
		MaxPowerMilliAmps: i.Power.MaxMilliAmps,
		SelfPowered:       i.Power.SelfPowered,
	}
	if i.Strings.Manufacturer != "" {
		cfg.ManufacturerIndex = 1
	}
	if i.Strings.Product != "" {
		cfg.ProductIndex = 2
	}
	if i.Strings.Serial != "" {
		cfg.SerialNumberIndex = 3
	}
	return cfg
}

// StringTable builds a device.StringTable serving the identity strings
// in US English, with the language descriptor at index 0.
func (i *Identity) StringTable() device.StringTable {
	t := &stringTable{}
	buf := make([]byte, 256)

	n := device.LanguageDescriptorTo(buf, device.LangIDUSEnglish)
	t.add(0, buf[:n])
	for idx, s := range []string{i.Strings.Manufacturer, i.Strings.Product, i.Strings.Serial} {
		if s == "" {
			continue
		}
		n = device.StringDescriptorTo(buf, s)
		t.add(uint8(idx+1), buf[:n])
	}
	return t
}

// stringTable is a fixed index-to-descriptor map.
type stringTable struct {
	descriptors [4][]byte
}

func (t *stringTable) add(index uint8, desc []byte) {
	d := make([]byte, len(desc))
	copy(d, desc)
	t.descriptors[index] = d
}

// Lookup returns the string descriptor for the index, or nil when it
// does not exist. Only US English is served.
func (t *stringTable) Lookup(index uint8, langID uint16) []byte {
	if int(index) >= len(t.descriptors) {
		return nil
	}
	if index != 0 && langID != 0 && langID != device.LangIDUSEnglish {
		return nil
	}
	return t.descriptors[index]
}
