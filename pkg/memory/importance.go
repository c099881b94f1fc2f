package memory

import (
	"sort"
	"strings"
)

// Importance and Tags are pure keyword heuristics over one exchange. They
// are deterministic: identical input always produces identical output.
//
// The score is a sum of independently capped signals, clamped to [0,1]:
//
//	length of both texts        min(n/500, 1)    × 0.20
//	personal-keyword hits       min(hits × 0.15, 0.40)
//	emotional-keyword hits      min(hits × 0.10, 0.30)
//	decision-keyword hits       min(hits × 0.10, 0.20)
//	question marks              min(count × 0.10, 0.20)
//
// Keyword lists deliberately mix phrases and their head words ("my name"
// and "name"), so an explicit personal statement counts more than a
// passing mention.

var personalKeywords = []string{
	"my name", "name",
	"i am", "i'm",
	"i love", "love",
	"i like", "i prefer", "favorite",
	"i feel", "friend", "family",
	"my wife", "my husband", "my partner",
	"birthday",
}

var emotionalKeywords = []string{
	"love", "hate",
	"happy", "sad", "angry", "excited",
	"worried", "anxious", "scared", "frustrated",
	"proud", "stressed", "grateful", "lonely",
}

var decisionKeywords = []string{
	"decided", "i'll", "we'll", "i will", "we will",
	"going to", "plan to", "promise", "commit",
	"agreed", "deadline",
}

// Importance scores an exchange's durability-worthiness in [0,1].
func Importance(userText, assistantText string) float64 {
	combined := strings.ToLower(userText + " " + assistantText)

	score := min(float64(len(userText)+len(assistantText))/500, 1) * 0.20
	score += min(float64(countHits(combined, personalKeywords))*0.15, 0.40)
	score += min(float64(countHits(combined, emotionalKeywords))*0.10, 0.30)
	score += min(float64(countHits(combined, decisionKeywords))*0.10, 0.20)
	score += min(float64(strings.Count(combined, "?"))*0.10, 0.20)

	return min(score, 1)
}

var tagKeywords = map[string][]string{
	"work": {
		"work", "job", "meeting", "project", "deadline",
		"office", "boss", "client", "colleague",
	},
	"emotional": {
		"feel", "happy", "sad", "angry", "excited",
		"worried", "love", "hate", "stressed",
	},
	"meta-memory": {
		"remember", "forget", "recall", "memory", "remind",
	},
	"about-user": {
		"my name", "i am", "i'm", "i love", "i like",
		"i prefer", "my favorite", "i work", "i live", "i feel",
	},
	"about-assistant": {
		"you are", "you're", "your name", "do you",
		"you think", "you said",
	},
	"planning": {
		"plan", "schedule", "tomorrow", "next week",
		"appointment", "going to", "will",
	},
}

// Tags extracts topical labels for an exchange. Multiple tags may apply;
// the result is sorted for stable output.
func Tags(userText, assistantText string) []string {
	combined := strings.ToLower(userText + " " + assistantText)

	var tags []string
	for tag, words := range tagKeywords {
		for _, w := range words {
			if strings.Contains(combined, w) {
				tags = append(tags, tag)
				break
			}
		}
	}
	if strings.Contains(combined, "?") {
		tags = append(tags, "question")
	}
	sort.Strings(tags)
	return tags
}

// countHits sums the occurrences of every keyword in text.
func countHits(text string, keywords []string) int {
	n := 0
	for _, w := range keywords {
		n += strings.Count(text, w)
	}
	return n
}
