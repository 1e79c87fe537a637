// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-testament.
//
// go-testament is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package will

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-testament/pkg/fragment"
	"github.com/jeremyhahn/go-testament/pkg/key"
	"github.com/jeremyhahn/go-testament/pkg/logging"
	"github.com/jeremyhahn/go-testament/pkg/metrics"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
)

// trialState tracks one key-fragment variant through reconstruction.
type trialState int

const (
	trialEncrypted trialState = iota
	trialPeeledFloating
	trialReconstructed
	trialDiscarded
)

func (s trialState) String() string {
	switch s {
	case trialEncrypted:
		return "encrypted"
	case trialPeeledFloating:
		return "peeled-floating"
	case trialReconstructed:
		return "reconstructed"
	case trialDiscarded:
		return "discarded"
	}
	return "trialState(" + strconv.Itoa(int(s)) + ")"
}

// trial is one variant of one floating custodian's key share.
type trial struct {
	floater *floater
	variant int
	// used holds the ordinals of floating keys peeled, in peel order.
	used  []int
	share fragment.Fragment
	state trialState
}

type floater struct {
	parcel *parcel.FloatingParcel
	key    *key.Key
}

type required struct {
	name string
	key  *key.Key
}

// Reconstruct rebuilds the plaintext from whatever parcels were collected.
// Records may arrive in any order and need not be labelled; each is
// classified by its type.
func Reconstruct(ctx context.Context, records []parcel.Record, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	log := o.logger

	floaters, reqs, err := classify(records)
	if err != nil {
		return nil, err
	}
	n := floaters[0].parcel.FloaterCount

	trials := make([]*trial, 0)
	for _, f := range floaters {
		for v, buf := range f.parcel.KeyFragments {
			trials = append(trials, &trial{
				floater: f,
				variant: v,
				share:   fragment.New(buf),
				state:   trialEncrypted,
			})
		}
	}

	topSuccess := 0
	for _, tr := range trials {
		if err := peelFloating(ctx, tr, floaters); err != nil {
			return nil, err
		}
		topSuccess = max(topSuccess, len(tr.used))
	}
	log.Debug("floating layers peeled", "trials", len(trials), "top_success", topSuccess)

	survivors := 0
	for _, tr := range trials {
		if len(tr.used) < topSuccess {
			tr.state = trialDiscarded
			continue
		}
		tr.state = trialPeeledFloating
		survivors++
	}
	if survivors == 0 {
		return nil, ErrNoCoalition
	}

	first, second, err := chooseCoalition(trials, log)
	if err != nil {
		return nil, err
	}

	mainKey, err := rebuildMainKey(ctx, first, second, n, reqs, log)
	if err != nil {
		return nil, err
	}
	plaintext, err := rebuildPlaintext(first, second, n, mainKey)
	if err != nil {
		return nil, err
	}

	first.state = trialReconstructed
	second.state = trialReconstructed
	metrics.SetCoalitionSize(len(first.used) + 1)
	return plaintext, nil
}

// classify splits records by type, rebuilds every key and sorts both lists
// by ordinal.
func classify(records []parcel.Record) ([]*floater, []*required, error) {
	var floaters []*floater
	var reqs []*required
	var reqParcels []*parcel.Parcel

	for _, rec := range records {
		switch p := rec.(type) {
		case *parcel.FloatingParcel:
			if p == nil {
				return nil, nil, fmt.Errorf("%w: nil floating parcel", parcel.ErrUnknownRecord)
			}
			if err := p.Validate(); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", parcel.ErrCorruptRecord, err)
			}
			k, err := p.UnwrapKey()
			if err != nil {
				return nil, nil, err
			}
			floaters = append(floaters, &floater{parcel: p, key: k})
		case *parcel.Parcel:
			if p == nil {
				return nil, nil, fmt.Errorf("%w: nil parcel", parcel.ErrUnknownRecord)
			}
			if err := p.Validate(); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", parcel.ErrCorruptRecord, err)
			}
			reqParcels = append(reqParcels, p)
		default:
			return nil, nil, fmt.Errorf("%w: %T", parcel.ErrUnknownRecord, rec)
		}
	}

	if len(floaters) < 2 {
		return nil, nil, ErrInsufficientFloaters
	}

	sort.SliceStable(floaters, func(i, j int) bool {
		return floaters[i].parcel.Ordinal < floaters[j].parcel.Ordinal
	})
	n := floaters[0].parcel.FloaterCount
	for i, f := range floaters {
		if f.parcel.FloaterCount != n {
			return nil, nil, fmt.Errorf("%w: %s expects %d floaters, %s expects %d",
				ErrInconsistentParcels, floaters[0].parcel.Custodian, n, f.parcel.Custodian, f.parcel.FloaterCount)
		}
		if i > 0 && floaters[i-1].parcel.Ordinal == f.parcel.Ordinal {
			return nil, nil, fmt.Errorf("%w: %s and %s share ordinal %d",
				ErrInconsistentParcels, floaters[i-1].parcel.Custodian, f.parcel.Custodian, f.parcel.Ordinal)
		}
	}

	sort.SliceStable(reqParcels, func(i, j int) bool {
		return reqParcels[i].Ordinal < reqParcels[j].Ordinal
	})
	seen := make(map[string]struct{}, len(reqParcels))
	for _, p := range reqParcels {
		if _, dup := seen[p.Custodian]; dup {
			return nil, nil, fmt.Errorf("%w: required custodian %s supplied twice", ErrInconsistentParcels, p.Custodian)
		}
		seen[p.Custodian] = struct{}{}
		k, err := p.UnwrapKey()
		if err != nil {
			return nil, nil, err
		}
		reqs = append(reqs, &required{name: p.Custodian, key: k})
	}
	return floaters, reqs, nil
}

// peelFloating repeatedly scans the other floaters' keys, restarting the
// scan after every successful peel, until a full scan peels nothing.
func peelFloating(ctx context.Context, tr *trial, floaters []*floater) error {
	own := tr.floater.parcel.Ordinal
	for {
		progress := false
		for _, f := range floaters {
			ordinal := f.parcel.Ordinal
			if ordinal == own || slices.Contains(tr.used, ordinal) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			next, ok, err := tr.share.Peel(f.key)
			metrics.RecordTrial(metrics.LayerFloating, ok)
			if err != nil {
				return err
			}
			if ok {
				tr.share = next
				tr.used = append(tr.used, ordinal)
				progress = true
				break
			}
		}
		if !progress {
			return nil
		}
	}
}

// peelRequired strips required layers from the joined main key blob with
// the same restart-until-no-progress scan as peelFloating. It returns the
// remaining blob and the names of the keys that peeled a layer.
func peelRequired(ctx context.Context, blob fragment.Fragment, reqs []*required) (fragment.Fragment, map[string]struct{}, error) {
	used := make(map[string]struct{}, len(reqs))
	for {
		progress := false
		for _, r := range reqs {
			if _, done := used[r.name]; done {
				continue
			}
			if err := ctx.Err(); err != nil {
				return fragment.Fragment{}, nil, err
			}
			next, ok, err := blob.Peel(r.key)
			metrics.RecordTrial(metrics.LayerRequired, ok)
			if err != nil {
				return fragment.Fragment{}, nil, err
			}
			if ok {
				blob = next
				used[r.name] = struct{}{}
				progress = true
				break
			}
		}
		if !progress {
			return blob, used, nil
		}
	}
}

// chooseCoalition groups the surviving trials by the ordinal set
// {own} ∪ used and returns the two lowest-ordinal members of the largest
// group, first found winning ties. When no group has two members, which
// is the case for M = 1, the two lowest-ordinal survivors are used.
func chooseCoalition(trials []*trial, log *logging.Logger) (*trial, *trial, error) {
	type group struct {
		key     string
		members []*trial
	}
	var groups []*group
	byKey := make(map[string]*group)
	var survivors []*trial

	for _, tr := range trials {
		if tr.state != trialPeeledFloating {
			continue
		}
		if !containsFloater(survivors, tr.floater) {
			survivors = append(survivors, tr)
		}

		k := coalitionKey(tr)
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k}
			byKey[k] = g
			groups = append(groups, g)
		}
		if !containsFloater(g.members, tr.floater) {
			g.members = append(g.members, tr)
		}
	}

	var best *group
	for _, g := range groups {
		if best == nil || len(g.members) > len(best.members) {
			best = g
		}
	}

	members := best.members
	if len(members) < 2 {
		members = survivors
	}
	if len(members) < 2 {
		return nil, nil, ErrNoCoalition
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].floater.parcel.Ordinal < members[j].floater.parcel.Ordinal
	})

	log.Debug("coalition chosen", "ordinals", best.key, "members", len(best.members))
	return members[0], members[1], nil
}

func coalitionKey(tr *trial) string {
	ordinals := append([]int{tr.floater.parcel.Ordinal}, tr.used...)
	slices.Sort(ordinals)
	parts := make([]string, len(ordinals))
	for i, o := range ordinals {
		parts[i] = strconv.Itoa(o)
	}
	return strings.Join(parts, ",")
}

func containsFloater(trials []*trial, f *floater) bool {
	for _, tr := range trials {
		if tr.floater == f {
			return true
		}
	}
	return false
}

// slotTable lays a merged share back out as n fragments with a zero-value
// hole at the owner's ordinal, undoing the merge done by Distribute.
func slotTable(share []byte, own, n int) ([]fragment.Fragment, error) {
	parts, err := fragment.Split(share, n-1)
	if err != nil {
		return nil, err
	}
	slots := make([]fragment.Fragment, n)
	next := 0
	for i := range slots {
		if i == own {
			continue
		}
		slots[i] = parts[next]
		next++
	}
	return slots, nil
}

// combine fills first's table and plugs its hole from second's.
func combine(first, second []byte, firstOwn, secondOwn, n int) ([]byte, error) {
	a, err := slotTable(first, firstOwn, n)
	if err != nil {
		return nil, err
	}
	b, err := slotTable(second, secondOwn, n)
	if err != nil {
		return nil, err
	}
	a[firstOwn] = b[firstOwn]
	return fragment.Join(a)
}

// rebuildMainKey joins the coalition's shares, checks the outer digest,
// peels every required layer and checks the inner digest. Every supplied
// required key must have peeled exactly one layer.
func rebuildMainKey(ctx context.Context, first, second *trial, n int, reqs []*required, log *logging.Logger) (*key.Key, error) {
	joined, err := combine(first.share.Bytes(), second.share.Bytes(),
		first.floater.parcel.Ordinal, second.floater.parcel.Ordinal, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMainKeyMismatch, err)
	}
	blob := fragment.New(joined)
	if !blob.VerifyHash() {
		return nil, ErrMainKeyMismatch
	}
	if blob, err = blob.StripHash(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMainKeyMismatch, err)
	}

	blob, used, err := peelRequired(ctx, blob, reqs)
	if err != nil {
		return nil, err
	}
	log.Debug("required layers peeled", "required", len(reqs), "peeled", len(used))
	for _, r := range reqs {
		if _, ok := used[r.name]; !ok {
			return nil, fmt.Errorf("%w: required key %s opened no layer", ErrMainKeyMismatch, r.name)
		}
	}

	if !blob.VerifyHash() {
		return nil, ErrMainKeyMismatch
	}
	stripped, err := blob.StripHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMainKeyMismatch, err)
	}
	mainKey, err := key.FromAggregated(mainKeyName, stripped.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMainKeyMismatch, err)
	}
	return mainKey, nil
}

func rebuildPlaintext(first, second *trial, n int, mainKey *key.Key) ([]byte, error) {
	joined, err := combine(first.floater.parcel.Ciphertext, second.floater.parcel.Ciphertext,
		first.floater.parcel.Ordinal, second.floater.parcel.Ordinal, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaintextMismatch, err)
	}
	opened, err := fragment.New(joined).Decrypt(mainKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaintextMismatch, err)
	}
	if !opened.VerifyHash() {
		return nil, ErrPlaintextMismatch
	}
	plain, err := opened.StripHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaintextMismatch, err)
	}
	return plain.Bytes(), nil
}
