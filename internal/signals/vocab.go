package signals

// #region techno-keywords

// TechnoKeywords is the always-on domain vocabulary.
var TechnoKeywords = []string{
	"algorithm", "protocol", "quantum", "neural", "encryption",
	"autonomous", "decentralized", "blockchain", "matrix",
	"circuit", "binary", "synthetic", "cybernetic", "nanotech",
	"bio-digital", "firewall", "kernel", "runtime", "compiler", "recursive",
}

// #endregion techno-keywords

// #region mystical-keywords

// MysticalKeywords only counts when the mystical profile is active.
var MysticalKeywords = []string{
	"arcane", "oracle", "sigil", "ritual", "ether", "astral",
	"rune", "veil", "prophecy", "sacred", "cosmic", "void",
}

// #endregion mystical-keywords

// #region generic-phrases

// GenericPhrases mark low-effort boilerplate. The generic score is the
// fraction of this list found in a text.
var GenericPhrases = []string{
	"please provide",
	"could you please",
	"i would like",
	"can you help me",
	"i need to",
	"please assist",
	"would you mind",
	"i was wondering",
	"could you explain",
	"in order to",
	"for the purpose of",
	"with regard to",
	"happy to help",
	"how can i help",
}

// #endregion generic-phrases

// #region request-phrases

// requestPhrases mark an input phrased as a polite generic request rather
// than a direct statement of intent.
var requestPhrases = []string{
	"could you please",
	"i would like",
	"can you help",
	"would you mind",
	"please provide",
	"please assist",
	"i was wondering",
	"help me",
}

// #endregion request-phrases
