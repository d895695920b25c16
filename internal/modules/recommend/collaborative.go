package recommend

import (
	"math"
	"sort"

	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
)

type similarPeer struct {
	profile    profile.RiderProfile
	similarity float64
}

// Similarity compares two riders' preferences on [0,1].
func Similarity(a, b profile.Preferences) float64 {
	s := 0.3*jaccard(a.PreferredVehicleClasses, b.PreferredVehicleClasses) +
		0.3*priceCloseness(a.MaxPrice, b.MaxPrice)
	if a.SmokingAllowed == b.SmokingAllowed {
		s += 0.2
	}
	if a.ConversationStyle == b.ConversationStyle {
		s += 0.2
	}
	return s
}

// Collaborative scores r by how similar riders rated comparable rides.
// Without similar peers it returns NeutralScore.
func Collaborative(r ride.Ride, self profile.RiderProfile, peers []profile.RiderProfile) float64 {
	return collaborativeScore(r, similarPeers(self, peers))
}

// similarPeers keeps the maxSimilarPeers most similar peers above
// similarityThreshold, most similar first.
func similarPeers(self profile.RiderProfile, peers []profile.RiderProfile) []similarPeer {
	var out []similarPeer
	for _, p := range peers {
		if p.ID == self.ID {
			continue
		}
		if sim := Similarity(self.Preferences, p.Preferences); sim > similarityThreshold {
			out = append(out, similarPeer{profile: p, similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].similarity > out[j].similarity })
	if len(out) > maxSimilarPeers {
		out = out[:maxSimilarPeers]
	}
	return out
}

func collaborativeScore(r ride.Ride, peers []similarPeer) float64 {
	if len(peers) == 0 {
		return NeutralScore
	}
	var weighted, total float64
	for _, p := range peers {
		weighted += p.similarity * peerApproval(r, p.profile.History)
		total += p.similarity
	}
	return clamp(weighted/total*100, 0, 100)
}

// peerApproval is the fraction of a peer's history in the same class,
// rated well and priced within peerPriceTolerance of r.
func peerApproval(r ride.Ride, history []profile.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	var n int
	for _, e := range history {
		if e.VehicleClass == r.VehicleClass &&
			e.RiderRating >= peerGoodRating &&
			math.Abs(e.Price-r.Price) <= peerPriceTolerance*r.Price {
			n++
		}
	}
	return float64(n) / float64(len(history))
}

// jaccard of two sets; two empty sets are identical.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	union := len(set)
	var inter int
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		if seen[v] {
			continue
		}
		seen[v] = true
		if set[v] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func priceCloseness(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi <= 0 {
		return 1
	}
	return math.Max(0, 1-math.Abs(a-b)/hi)
}
