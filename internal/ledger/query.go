package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/arthouse/internal/kv"
)

const (
	defaultListLimit = 10
	maxListLimit     = 30
)

// Query answers a read request from committed state. It never writes.
func Query(r kv.ReadRanger, msg QueryMsg) (any, error) {
	switch {
	case msg.GetCount != nil:
		cfg, err := loadConfig(r)
		if err != nil {
			return nil, err
		}
		return GetCountResponse{Count: cfg.Count}, nil

	case msg.GetArt != nil:
		art, err := gallery.Load(r, msg.GetArt.ArtID)
		if err != nil {
			return nil, storeError(err, fmt.Sprintf("art %d", msg.GetArt.ArtID))
		}
		return GetArtResponse{Art: art}, nil

	case msg.GetArtOwner != nil:
		owner, err := owners.Load(r, msg.GetArtOwner.ArtID)
		if err != nil {
			return nil, storeError(err, fmt.Sprintf("owner of art %d", msg.GetArtOwner.ArtID))
		}
		return GetArtOwnerResponse{Owner: owner}, nil

	case msg.GetBalance != nil:
		bal, err := loadBalance(r, msg.GetBalance.Address)
		if err != nil {
			return nil, err
		}
		return GetBalanceResponse{Balance: bal}, nil

	case msg.GetConfig != nil:
		cfg, err := loadConfig(r)
		if err != nil {
			return nil, err
		}
		return GetConfigResponse{Config: cfg}, nil

	case msg.ListArt != nil:
		return listArt(r, *msg.ListArt)

	default:
		return nil, invalidRequest("query: no variant set")
	}
}

// QueryJSON decodes a raw query, answers it and encodes the response.
func QueryJSON(r kv.ReadRanger, raw []byte) ([]byte, error) {
	msg, err := ParseQueryMsg(raw)
	if err != nil {
		return nil, err
	}
	resp, err := Query(r, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func listArt(r kv.ReadRanger, q ListArtQuery) (ListArtResponse, error) {
	limit := defaultListLimit
	if q.Limit != nil {
		limit = min(int(*q.Limit), maxListLimit)
	}
	resp := ListArtResponse{Art: []ArtInfo{}}
	if limit == 0 {
		return resp, nil
	}

	entries, err := gallery.Range(r, q.StartAfter, limit)
	if err != nil {
		return resp, storeError(err, "gallery")
	}
	for _, e := range entries {
		owner, err := owners.Load(r, e.Key)
		if err != nil {
			return resp, storeError(err, fmt.Sprintf("owner of art %d", e.Key))
		}
		resp.Art = append(resp.Art, ArtInfo{
			ArtID: e.Value.ArtID,
			Price: e.Value.Price,
			Rfid:  e.Value.Rfid,
			Owner: owner,
		})
	}
	return resp, nil
}
