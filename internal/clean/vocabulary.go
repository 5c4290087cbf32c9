package clean

// Vocabulary holds the regular expressions the cleaner strips. Patterns are matched
// case-insensitively. Fillers are matched as whole words; noise and watermark
// patterns never match inside a word; meaningless patterns are whole-line.
type Vocabulary struct {
	Fillers     []string `yaml:"fillers"`
	Noise       []string `yaml:"noise"`
	Watermarks  []string `yaml:"watermarks"`
	Meaningless []string `yaml:"meaningless"`
}

// Vietnamese hesitation sounds and discourse fillers.
var fillersVI = []string{
	`ừm+`, `à+`, `ờ+`, `ê+`,
	`thì\s+là`, `cũng\s+là`,
	`thật\s+ra\s+là`, `nói\s+chung\s+là`,
	`cơ\s+bản\s+là`, `ý\s+là`,
	`đại\s+loại`, `kiểu\s+như`,
}

var fillersEN = []string{
	`um+`, `uh+`, `ahm+`, `hmm+`,
	`you\s+know`, `basically`, `actually`,
	`i\s+mean`, `kind\s+of`, `sort\s+of`,
}

// DefaultVocabulary returns the Vietnamese and English vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Fillers: append(append([]string(nil), fillersVI...), fillersEN...),
		Noise: []string{
			`subscribe`, `like\s+and\s+share`, `follow\s+me`,
			`link\s+in\s+bio`, `comment\s+below`, `check\s+out`,
			`đăng\s+ký`, `theo\s+dõi`, `like\s+ủng\s+hộ`,
			`nhấn\s+like`, `bấm\s+subscribe`, `xem\s+thêm`,
			`mô\s+tả\s+bên\s+dưới`, `link\s+dưới\s+comment`,
			`@[\p{L}\p{N}_]+`,
			`#[\p{L}\p{N}_]{2,}`,
		},
		Watermarks: []string{
			`tiktok`, `douyin`, `capcut`, `inshot`,
			`♬`, `🎵`, `🎶`,
			`original\s+sound`, `âm\s+thanh\s+gốc`,
		},
		Meaningless: []string{
			`^[^\p{L}\p{N}_\s]+$`,
			`^\d+:\d+$`,
			`^\d+[km]$`,
			`^[a-z]{1,2}$`,
		},
	}
}
