package devbackend

import (
	"sort"
	"strings"
)

const recommendationLimit = 20

func genreSet(m Movie) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range strings.Split(m.Genres, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out[g] = struct{}{}
		}
	}
	return out
}

// contentScores rates movies by genre overlap with the user's likes.
func (s *store) contentScores(liked []int) map[int]float64 {
	scores := make(map[int]float64)
	for _, id := range liked {
		src, ok := s.byID[id]
		if !ok {
			continue
		}
		want := genreSet(src)
		for _, m := range s.catalog {
			if m.TMDBID == id {
				continue
			}
			shared := 0
			for g := range genreSet(m) {
				if _, ok := want[g]; ok {
					shared++
				}
			}
			if shared > 0 {
				scores[m.TMDBID] += float64(shared) / float64(len(want))
			}
		}
	}
	return scores
}

// collaborativeScores rates movies liked by users who share a like with userID.
func (s *store) collaborativeScores(userID int, liked []int) map[int]float64 {
	mine := make(map[int]struct{}, len(liked))
	for _, id := range liked {
		mine[id] = struct{}{}
	}
	scores := make(map[int]float64)
	for other, prefs := range s.likes {
		if other == userID {
			continue
		}
		overlap := 0
		for id, v := range prefs {
			if _, ok := mine[id]; ok && v == 1 {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		for id, v := range prefs {
			if v == 1 {
				scores[id] += float64(overlap)
			}
		}
	}
	return scores
}

func normalize(scores map[int]float64) {
	max := 0.0
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return
	}
	for k, v := range scores {
		scores[k] = v / max
	}
}

// recommend ranks unrated movies for userID with the configured algorithm,
// falling back to popular movies when the algorithm yields nothing.
func (s *store) recommend(userID int, st Settings) []Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rated := s.likes[userID]
	var liked []int
	for id, v := range rated {
		if v == 1 {
			liked = append(liked, id)
		}
	}
	sort.Ints(liked)

	var scores map[int]float64
	switch st.Algorithm {
	case "content":
		scores = s.contentScores(liked)
	case "collaborative":
		scores = s.collaborativeScores(userID, liked)
	case "hybrid":
		cb := s.contentScores(liked)
		cf := s.collaborativeScores(userID, liked)
		normalize(cb)
		normalize(cf)
		scores = make(map[int]float64, len(cb)+len(cf))
		for id, v := range cb {
			scores[id] += st.ContentWeight * v
		}
		for id, v := range cf {
			scores[id] += st.CollaborativeWeight * v
		}
	}

	var ranked []Movie
	for id, score := range scores {
		if _, done := rated[id]; done || score <= 0 {
			continue
		}
		if m, ok := s.byID[id]; ok {
			ranked = append(ranked, m)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := scores[ranked[i].TMDBID], scores[ranked[j].TMDBID]
		if a != b {
			return a > b
		}
		return ranked[i].TMDBID < ranked[j].TMDBID
	})

	if len(ranked) == 0 {
		for _, m := range s.popular() {
			if _, done := rated[m.TMDBID]; !done {
				ranked = append(ranked, m)
			}
		}
	}
	if len(ranked) > recommendationLimit {
		ranked = ranked[:recommendationLimit]
	}
	return ranked
}
