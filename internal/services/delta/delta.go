package delta

import "versync/internal/domain"

// NewestOnly plans the single newest remote artifact when its version key is
// strictly greater than the newest local one. Equal keys mean the local side
// is already current and yield an empty plan, as does an empty remote
// listing.
func NewestOnly(remote, local domain.Inventory) domain.DeltaPlan {
	newestRemote, ok := remote.Newest()
	if !ok {
		return nil
	}
	if newestLocal, ok := local.Newest(); ok && !newestLocal.Key.Less(newestRemote.Key) {
		return nil
	}
	return domain.DeltaPlan{newestRemote}
}

// SinceContiguous plans every remote artifact newer than the last
// contiguous point: the maximum local version key such that every remote
// artifact at or below it is already present locally. Remote gaps below
// that point are assumed handled and are not re-requested unless backfill
// is set, in which case every remote artifact missing locally joins the
// plan. An empty local inventory plans the entire remote inventory. The
// plan is always ascending by version key.
func SinceContiguous(remote, local domain.Inventory, backfill bool) domain.DeltaPlan {
	if backfill {
		var plan domain.DeltaPlan
		for _, r := range remote.Ascending() {
			if !local.Contains(r.Name) {
				plan = append(plan, r)
			}
		}
		return plan
	}

	point := contiguousPoint(remote, local)
	var plan domain.DeltaPlan
	for _, r := range remote.Ascending() {
		if point.Less(r.Key) {
			plan = append(plan, r)
		}
	}
	return plan
}

// contiguousPoint walks the remote inventory in ascending order and returns
// the highest key reached before the first locally missing artifact. The
// zero key means nothing is contiguously present.
func contiguousPoint(remote, local domain.Inventory) domain.VersionKey {
	var point domain.VersionKey
	for _, r := range remote.Ascending() {
		if !local.Contains(r.Name) {
			break
		}
		point = r.Key
	}
	return point
}
