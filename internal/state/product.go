package state

// Dyson product type codes, as reported in the cloud device manifest and
// used as the MQTT topic prefix.
const (
	ProductPureCoolLinkDesk = "469"
	ProductPureCoolLinkTour = "475"
	ProductPureHotCoolLink  = "455"
	ProductPureCool         = "438"
	ProductPureCoolDesktop  = "520"
	ProductPureHotCool      = "527"
)

// IsV2 reports whether a product type speaks the second generation
// message schema.
func IsV2(productType string) bool {
	switch productType {
	case ProductPureCool, ProductPureCoolDesktop, ProductPureHotCool:
		return true
	}
	return false
}

// HasHeating reports whether a product type is a heater-equipped
// (Hot+Cool) unit.
func HasHeating(productType string) bool {
	return productType == ProductPureHotCoolLink || productType == ProductPureHotCool
}

// KnownProduct reports whether the product type maps to a supported
// message schema.
func KnownProduct(productType string) bool {
	switch productType {
	case ProductPureCoolLinkDesk, ProductPureCoolLinkTour, ProductPureHotCoolLink,
		ProductPureCool, ProductPureCoolDesktop, ProductPureHotCool:
		return true
	}
	return false
}
