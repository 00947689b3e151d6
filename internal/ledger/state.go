package ledger

import "github.com/roach88/arthouse/internal/kv"

// Addr is an account identifier supplied by the host.
type Addr string

// DefaultDenom is the native denomination accepted by deposit when
// instantiation names none.
const DefaultDenom = "ucosm"

// Config is the singleton contract configuration.
type Config struct {
	Owner Addr  `json:"owner"`
	Count int32 `json:"count"`
	// ArtCounter is the id the next minted art receives.
	ArtCounter uint64 `json:"art_counter"`
	// RoyaltyRate is stored and reported but not applied to sales.
	RoyaltyRate uint64 `json:"royalty_rate"`
	Denom       string `json:"denom"`
}

// Art is a minted item. Immutable after creation.
type Art struct {
	ArtID uint64 `json:"art_id"`
	Price Amount `json:"price"`
	Rfid  uint64 `json:"rfid"`
}

// Table namespaces. They are part of the persisted layout.
const (
	NamespaceConfig   = "config"
	NamespaceGallery  = "gallery"
	NamespaceOwners   = "owners"
	NamespaceBalances = "balances"
)

var (
	configItem = kv.NewItem[Config](NamespaceConfig)
	gallery    = kv.NewMap[uint64, Art](NamespaceGallery, kv.Uint64Key)
	owners     = kv.NewMap[uint64, Addr](NamespaceOwners, kv.Uint64Key)
	balances   = kv.NewMap[Addr, Amount](NamespaceBalances, kv.StringKey[Addr]())
)

func loadConfig(r kv.Reader) (Config, error) {
	cfg, err := configItem.Load(r)
	return cfg, storeError(err, "config")
}

func loadBalance(r kv.Reader, account Addr) (Amount, error) {
	bal, _, err := balances.MayLoad(r, account)
	return bal, storeError(err, "balance")
}
