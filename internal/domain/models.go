// Package domain provides the error taxonomy and identifiers shared by the simulation modules.
package domain

// Asset identifies one of the simulated assets
type Asset string

const (
	// AssetPrimary is the producing mine that exists from year 1
	AssetPrimary Asset = "primary"
	// AssetProspect is the mine that exploration may discover
	AssetProspect Asset = "prospect"
	// AssetSearch labels the random stream used for exploration success draws
	AssetSearch Asset = "search"
)

// StreamLabel returns the random stream label for a variable of this asset.
// Distinct labels give statistically independent draws.
func (a Asset) StreamLabel(variable string) string {
	return string(a) + "/" + variable
}
