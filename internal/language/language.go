package language

import "strings"

// TargetCode is the translation target: Traditional Chinese.
const TargetCode = "zho_Hant"

// Profile describes one supported source language.
type Profile struct {
	Key                string // Stable CLI/config identifier, e.g. "truku"
	Name               string // English name
	NativeName         string // Name as shown to reviewers, e.g. 太魯閣語
	RecognitionModelID string // Recognizer model, e.g. "formosan_trv"
	Ethnonym           string // Passed to the translator's code lookup, e.g. 太魯閣
}

type entry struct {
	Profile
	aliases []string
}

var profiles = []entry{
	{Profile{"truku", "Truku", "太魯閣語", "formosan_trv", "太魯閣"}, nil},
	{Profile{"amis", "Amis", "阿美語", "formosan_ami", "阿美"}, []string{"pangcah"}},
	{Profile{"paiwan", "Paiwan", "排灣語", "formosan_pwn", "排灣"}, nil},
	{Profile{"bunun", "Bunun", "布農語", "formosan_bun", "布農"}, nil},
	{Profile{"atayal", "Atayal", "泰雅語", "formosan_tay", "泰雅"}, nil},
	{Profile{"rukai", "Rukai", "魯凱語", "formosan_dru", "魯凱"}, nil},
	{Profile{"puyuma", "Puyuma", "卑南語", "formosan_puy", "卑南"}, []string{"pinuyumayan"}},
	{Profile{"tsou", "Tsou", "鄒語", "formosan_tsu", "鄒"}, nil},
	{Profile{"saisiyat", "Saisiyat", "賽夏語", "formosan_sai", "賽夏"}, nil},
	{Profile{"yami", "Yami", "雅美語(達悟語)", "formosan_tao", "雅美"}, []string{"tao", "達悟語", "雅美語"}},
	{Profile{"thao", "Thao", "邵語", "formosan_tha", "邵"}, nil},
	{Profile{"kavalan", "Kavalan", "噶瑪蘭語", "formosan_kab", "噶瑪蘭"}, nil},
	{Profile{"sakizaya", "Sakizaya", "撒奇萊雅語", "formosan_sak", "撒奇萊雅"}, nil},
	{Profile{"seediq", "Seediq", "賽德克語", "formosan_sed", "賽德克"}, nil},
	{Profile{"hlaalua", "Hla'alua", "拉阿魯哇語", "formosan_laa", "拉阿魯哇"}, []string{"saaroa"}},
	{Profile{"kanakanavu", "Kanakanavu", "卡那卡那富語", "formosan_kan", "卡那卡那富"}, nil},
}

// byName indexes every accepted spelling, built at init time.
var byName map[string]int

func init() {
	byName = make(map[string]int, len(profiles)*6)
	for i, e := range profiles {
		for _, name := range []string{e.Key, e.Name, e.NativeName, e.RecognitionModelID, e.Ethnonym} {
			byName[normalize(name)] = i
		}
		for _, alias := range e.aliases {
			byName[normalize(alias)] = i
		}
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Lookup resolves a key, English name, native name, ethnonym or model id.
func Lookup(name string) (Profile, bool) {
	i, ok := byName[normalize(name)]
	if !ok {
		return Profile{}, false
	}
	return profiles[i].Profile, true
}

// All returns the profiles in table order.
func All() []Profile {
	out := make([]Profile, len(profiles))
	for i, e := range profiles {
		out[i] = e.Profile
	}
	return out
}

// Keys returns the stable keys in table order.
func Keys() []string {
	keys := make([]string, len(profiles))
	for i, e := range profiles {
		keys[i] = e.Key
	}
	return keys
}

// Label renders "NativeName (Name)" for display.
func (p Profile) Label() string {
	if p.NativeName == "" {
		return p.Name
	}
	return p.NativeName + " (" + p.Name + ")"
}
