package sanitize

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Common function words and domain vocabulary. The two sets do not overlap.
var indonesianWords = wordSet(
	"saya", "aku", "ingin", "mau", "bagaimana", "cara", "untuk", "dan", "yang", "dengan",
	"tidak", "bisa", "agar", "supaya", "lebih", "sering", "setiap", "hari", "malam", "pagi",
	"kebiasaan", "meningkatkan", "membantu", "merasa", "sedang", "sangat", "ibadah", "sholat",
	"shalat", "berdoa", "keluarga", "istri", "suami", "anak", "orang", "tua", "hidup", "diri",
	"hati", "tenang", "sabar", "syukur", "bersyukur", "rajin", "malas", "waktu", "kerja",
	"pekerjaan", "belajar", "cemas", "sedih", "stres", "takut", "bahagia", "apa", "kenapa",
	"mengapa", "ini", "itu", "di", "ke", "dari", "pada", "juga", "sudah", "belum", "akan",
	"harus", "perlu", "punya", "ada", "kami", "kita", "mereka", "dia", "tolong", "bantu",
	"menjadi", "baik", "buruk", "banyak", "sedikit", "tahajud", "puasa", "sedekah", "membaca",
	"mengaji", "rutin", "konsisten", "produktif", "disiplin", "menikah", "pernikahan", "teman",
	"kehidupan", "memperbaiki", "mendekatkan", "rasa", "sulit", "selalu", "jadi", "karena",
)

var englishWords = wordSet(
	"i", "my", "me", "want", "to", "how", "can", "the", "a", "an", "and", "of", "for", "with",
	"is", "am", "are", "be", "do", "does", "not", "more", "better", "every", "day", "night",
	"morning", "habit", "habits", "improve", "help", "feel", "feeling", "very", "prayer", "pray",
	"praying", "family", "wife", "husband", "children", "parents", "life", "self", "heart",
	"calm", "patient", "grateful", "lazy", "time", "work", "study", "anxious", "anxiety", "sad",
	"stress", "stressed", "afraid", "happy", "what", "why", "this", "that", "in", "on", "from",
	"at", "also", "already", "will", "should", "need", "have", "has", "there", "we", "our",
	"they", "he", "she", "please", "become", "good", "bad", "much", "many", "little", "fasting",
	"charity", "read", "reading", "routine", "consistent", "productive", "productivity",
	"discipline", "marriage", "married", "friend", "friends", "closer", "spiritual", "worship",
	"get", "make", "stop", "start", "would", "like", "know", "because", "always", "hard",
)

func recognized(token string) bool {
	if _, ok := indonesianWords[token]; ok {
		return true
	}
	_, ok := englishWords[token]
	return ok
}

// lexicalVote counts dictionary hits per language. It is conclusive only when
// one language has strictly more hits.
func lexicalVote(tokens []string) (string, bool) {
	var id, en int
	for _, t := range tokens {
		if _, ok := indonesianWords[t]; ok {
			id++
		}
		if _, ok := englishWords[t]; ok {
			en++
		}
	}
	switch {
	case id > en:
		return "id", true
	case en > id:
		return "en", true
	default:
		return "", false
	}
}
