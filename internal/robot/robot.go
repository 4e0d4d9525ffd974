package robot

// Robot is the local view of the pseudo-identity. Token and the keypair are
// local material; everything else is scoped to the coordinator it came from.
type Robot struct {
	Token      string
	PubKey     string
	EncPrivKey string

	Nickname        string
	ActiveOrderID   *int64
	LastOrderID     *int64
	ReferralCode    string
	EarnedRewards   int64
	StealthInvoices bool
	TGEnabled       bool
	TGBotName       string
	TGToken         string
	BitsEntropy     float64
	ShannonEntropy  float64
	CopiedToken     bool

	// BaseURL is the endpoint the coordinator-scoped fields were confirmed against.
	BaseURL string
	// Stale is set from an endpoint switch until the next bootstrap lands.
	Stale   bool
	Loading bool
	Message string
}

func (r Robot) HasKeys() bool {
	return r.PubKey != "" && r.EncPrivKey != ""
}

// CurrentOrder is the order the robot should be looking at: the active one,
// otherwise the last one.
func (r Robot) CurrentOrder() (int64, bool) {
	if r.ActiveOrderID != nil {
		return *r.ActiveOrderID, true
	}
	if r.LastOrderID != nil {
		return *r.LastOrderID, true
	}
	return 0, false
}

func (r Robot) clone() Robot {
	out := r
	if r.ActiveOrderID != nil {
		v := *r.ActiveOrderID
		out.ActiveOrderID = &v
	}
	if r.LastOrderID != nil {
		v := *r.LastOrderID
		out.LastOrderID = &v
	}
	return out
}

// resetScoped drops every attribute that belongs to a specific coordinator.
func (r *Robot) resetScoped() {
	r.Nickname = ""
	r.ActiveOrderID = nil
	r.LastOrderID = nil
	r.ReferralCode = ""
	r.EarnedRewards = 0
	r.StealthInvoices = false
	r.TGEnabled = false
	r.TGBotName = ""
	r.TGToken = ""
	r.BitsEntropy, r.ShannonEntropy = Entropy(r.Token)
	r.BaseURL = ""
	r.Message = ""
}
