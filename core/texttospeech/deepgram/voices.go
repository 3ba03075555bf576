package deepgram

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-2-apollo-en"

var availableVoices = []deepgramVoice{
	"aura-2-apollo-en",
	"aura-2-arcas-en",
	"aura-2-aries-en",
	"aura-2-orion-en",
	"aura-2-orpheus-en",
	"aura-2-zeus-en",
	"aura-2-andromeda-en",
	"aura-2-asteria-en",
	"aura-2-athena-en",
	"aura-2-helena-en",
	"aura-2-luna-en",
	"aura-2-thalia-en",
}

func GetAvailableVoices() []deepgramVoice {
	voices := make([]deepgramVoice, len(availableVoices))
	copy(voices, availableVoices)
	return voices
}
