package session

// Kind tags the signed-in actor as a buyer or a farmer.
type Kind string

const (
	KindBuyer  Kind = "buyer"
	KindFarmer Kind = "farmer"
)

// Identity is the currently signed-in actor. Exactly one identity is
// active at a time; it is written wholesale on login and removed on
// logout.
type Identity struct {
	Kind         Kind   `json:"kind"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ContactPhone string `json:"contactPhone,omitempty"`
	// Location holds the buyer's location, or the farm name for farmers.
	Location     string `json:"location,omitempty"`
	FarmLocation string `json:"farmLocation,omitempty"`
}

func (i Identity) IsFarmer() bool {
	return i.Kind == KindFarmer
}
