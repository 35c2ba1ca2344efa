package clients

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/vadiminshakov/bazar/internal/domain"
)

// ErrMissingStreaks is returned when a streak payload has no Streaks field.
var ErrMissingStreaks = errors.New("payload has no streaks")

func parseJSON(raw json.RawMessage) (gjson.Result, error) {
	if len(raw) == 0 {
		return gjson.Result{}, ErrEmptyPayload
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.New("payload is not valid json")
	}
	return gjson.ParseBytes(raw), nil
}

// decimalOf accepts both numeric and string encoded amounts.
func decimalOf(r gjson.Result) decimal.Decimal {
	if !r.Exists() {
		return decimal.Zero
	}
	if r.Type == gjson.Number {
		if d, err := decimal.NewFromString(r.Raw); err == nil {
			return d
		}
	}
	d, err := decimal.NewFromString(r.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func intOf(r gjson.Result) int {
	if !r.Exists() {
		return 0
	}
	if r.Type == gjson.Number {
		return int(r.Int())
	}
	n, err := strconv.Atoi(r.String())
	if err != nil {
		return 0
	}
	return n
}

func stringsOf(r gjson.Result, idKey string) []string {
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			if id := v.Get(idKey).String(); id != "" {
				out = append(out, id)
			}
			return true
		}
		if s := v.String(); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// DecodeMarketInfo decodes the Info reply of the market process.
func DecodeMarketInfo(raw json.RawMessage) (domain.MarketInfo, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return domain.MarketInfo{}, errors.Wrap(err, "decode market info")
	}

	info := domain.MarketInfo{Name: root.Get("Name").String()}
	root.Get("Orderbook").ForEach(func(_, entry gjson.Result) bool {
		var e domain.OrderbookEntry
		entry.Get("Pair").ForEach(func(_, p gjson.Result) bool {
			e.Pair = append(e.Pair, p.String())
			return true
		})
		entry.Get("Orders").ForEach(func(_, o gjson.Result) bool {
			e.Orders = append(e.Orders, domain.MarketOrder{
				ID:               o.Get("Id").String(),
				Creator:          o.Get("Creator").String(),
				Quantity:         decimalOf(o.Get("Quantity")),
				OriginalQuantity: decimalOf(o.Get("OriginalQuantity")),
				Price:            decimalOf(o.Get("Price")),
				Token:            o.Get("Token").String(),
			})
			return true
		})
		info.Orderbook = append(info.Orderbook, e)
		return true
	})

	return info, nil
}

// DecodeTokenInfo decodes the Info reply of a token process.
func DecodeTokenInfo(processID string, raw json.RawMessage) (domain.TokenInfo, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return domain.TokenInfo{}, errors.Wrapf(err, "decode token info %s", processID)
	}

	return domain.TokenInfo{
		ID:           processID,
		Name:         root.Get("Name").String(),
		Ticker:       root.Get("Ticker").String(),
		Logo:         root.Get("Logo").String(),
		Denomination: intOf(root.Get("Denomination")),
	}, nil
}

// DecodeStreaks decodes the Get-Streaks reply keyed by identity.
func DecodeStreaks(raw json.RawMessage) (map[string]domain.Streak, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode streaks")
	}

	streaks := root.Get("Streaks")
	if !streaks.Exists() || !streaks.IsObject() {
		return nil, ErrMissingStreaks
	}

	out := make(map[string]domain.Streak)
	streaks.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = domain.Streak{
			Days:       v.Get("days").Int(),
			LastHeight: v.Get("lastHeight").Int(),
		}
		return true
	})

	return out, nil
}

// DecodeAsset decodes the Info reply of an atomic asset process.
func DecodeAsset(assetID string, raw json.RawMessage) (domain.Asset, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return domain.Asset{}, errors.Wrapf(err, "decode asset %s", assetID)
	}

	asset := domain.Asset{
		ID:           assetID,
		Title:        root.Get("Name").String(),
		Ticker:       root.Get("Ticker").String(),
		Logo:         root.Get("Logo").String(),
		Denomination: intOf(root.Get("Denomination")),
		Balances:     make(map[string]decimal.Decimal),
	}
	root.Get("Balances").ForEach(func(k, v gjson.Result) bool {
		asset.Balances[k.String()] = decimalOf(v)
		return true
	})

	return asset, nil
}

// DecodeProfile decodes the Info reply of a profile process.
func DecodeProfile(profileID string, raw json.RawMessage) (domain.Profile, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return domain.Profile{}, errors.Wrapf(err, "decode profile %s", profileID)
	}

	p := root.Get("Profile")
	if !p.Exists() {
		return domain.Profile{}, errors.Wrapf(ErrNotFound, "profile %s", profileID)
	}

	return domain.Profile{
		ID:            profileID,
		WalletAddress: root.Get("Owner").String(),
		Username:      p.Get("UserName").String(),
		DisplayName:   p.Get("DisplayName").String(),
		Bio:           p.Get("Description").String(),
		Avatar:        p.Get("ProfileImage").String(),
		Banner:        p.Get("CoverImage").String(),
		Assets:        stringsOf(root.Get("Assets"), "Id"),
		Collections:   stringsOf(root.Get("Collections"), "Id"),
	}, nil
}

// DecodeProfiles decodes the bulk registry reply.
// Entries without a profile id are dropped.
func DecodeProfiles(raw json.RawMessage) ([]domain.Profile, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode profiles")
	}

	var profiles []domain.Profile
	root.ForEach(func(_, v gjson.Result) bool {
		id := v.Get("ProfileId").String()
		if id == "" {
			return true
		}
		profiles = append(profiles, domain.Profile{
			ID:            id,
			WalletAddress: v.Get("CallerAddress").String(),
			Username:      v.Get("Username").String(),
			DisplayName:   v.Get("DisplayName").String(),
			Bio:           v.Get("Description").String(),
			Avatar:        v.Get("ProfileImage").String(),
			Banner:        v.Get("CoverImage").String(),
		})
		return true
	})

	return profiles, nil
}

// DecodeStampCounts decodes a map of asset id to stamp counts.
func DecodeStampCounts(raw json.RawMessage) (map[string]domain.StampCount, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode stamp counts")
	}

	out := make(map[string]domain.StampCount)
	root.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = domain.StampCount{
			Total:   v.Get("total").Int(),
			Vouched: v.Get("vouched").Int(),
		}
		return true
	})

	return out, nil
}

// DecodeStampChecks decodes a map of asset id to has-stamped flags.
func DecodeStampChecks(raw json.RawMessage) (map[string]bool, error) {
	root, err := parseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode stamp checks")
	}

	out := make(map[string]bool)
	root.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.Bool()
		return true
	})

	return out, nil
}
