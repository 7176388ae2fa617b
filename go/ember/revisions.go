// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Revision is an enumeration for EVM specification revisions (aka hard
// forks). Revisions are totally ordered; a feature introduced by fork F is
// enabled for every revision >= F. Downgrades are not supported.
type Revision int

const (
	R00_Frontier Revision = iota
	R01_Homestead
	R02_TangerineWhistle
	R03_SpuriousDragon
	R04_Byzantium
	R05_Constantinople
	R06_Petersburg
	R07_Istanbul
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	R13_Cancun
	R14_Prague
	numRevisions int = iota
)

// Feature identifies an EIP-introduced capability gated by a Revision.
type Feature int

const (
	FeatureDelegateCall Feature = iota
	FeatureRevertOpcode
	FeatureStaticCall
	FeatureCreate2
	FeatureShiftOpcodes
	FeatureExtCodeHash
	FeatureChainID
	FeatureSelfBalance
	FeatureAccessLists
	FeatureColdWarmAccess
	FeatureBaseFeeOpcode
	FeatureRefundCapFifth
	FeaturePush0
	FeatureWarmCoinbase
	FeatureInitcodeSizeLimit
	FeatureInitcodeWordCost
	FeatureTransientStorage
	FeatureMCopy
	FeatureBlobBaseFee
	FeatureBlobHash
	FeatureRestrictedSelfdestruct
	FeatureEOACodeAuthorization
	FeatureModExpRepricing
)

// introducedAt maps every gated feature to the first revision it is active in.
var introducedAt = map[Feature]Revision{
	FeatureDelegateCall:           R01_Homestead,
	FeatureRevertOpcode:           R04_Byzantium,
	FeatureStaticCall:             R04_Byzantium,
	FeatureCreate2:                R05_Constantinople,
	FeatureShiftOpcodes:           R05_Constantinople,
	FeatureExtCodeHash:            R05_Constantinople,
	FeatureChainID:                R07_Istanbul,
	FeatureSelfBalance:            R07_Istanbul,
	FeatureAccessLists:            R09_Berlin,
	FeatureColdWarmAccess:         R09_Berlin,
	FeatureBaseFeeOpcode:          R10_London,
	FeatureRefundCapFifth:         R10_London,
	FeaturePush0:                  R12_Shanghai,
	FeatureWarmCoinbase:           R12_Shanghai,
	FeatureInitcodeSizeLimit:      R12_Shanghai,
	FeatureInitcodeWordCost:       R12_Shanghai,
	FeatureTransientStorage:       R13_Cancun,
	FeatureMCopy:                  R13_Cancun,
	FeatureBlobBaseFee:            R13_Cancun,
	FeatureBlobHash:               R13_Cancun,
	FeatureRestrictedSelfdestruct: R13_Cancun,
	FeatureEOACodeAuthorization:   R14_Prague,
	FeatureModExpRepricing:        R14_Prague,
}

// IsEnabled reports whether the given feature is active at this revision.
// The relation is monotonic: if a feature is enabled at r, it is enabled at
// every later revision too.
func (r Revision) IsEnabled(f Feature) bool {
	introduced, known := introducedAt[f]
	if !known {
		panic(fmt.Sprintf("unknown feature %d", f))
	}
	return r >= introduced
}

var revisionNames = map[Revision]string{
	R00_Frontier:         "Frontier",
	R01_Homestead:        "Homestead",
	R02_TangerineWhistle: "TangerineWhistle",
	R03_SpuriousDragon:   "SpuriousDragon",
	R04_Byzantium:        "Byzantium",
	R05_Constantinople:   "Constantinople",
	R06_Petersburg:       "Petersburg",
	R07_Istanbul:         "Istanbul",
	R09_Berlin:           "Berlin",
	R10_London:           "London",
	R11_Paris:            "Paris",
	R12_Shanghai:         "Shanghai",
	R13_Cancun:           "Cancun",
	R14_Prague:           "Prague",
}

func (r Revision) String() string {
	if name, ok := revisionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Revision(%d)", r)
}

// GetAllKnownRevisions returns every revision in increasing fork order.
func GetAllKnownRevisions() []Revision {
	return []Revision{
		R00_Frontier,
		R01_Homestead,
		R02_TangerineWhistle,
		R03_SpuriousDragon,
		R04_Byzantium,
		R05_Constantinople,
		R06_Petersburg,
		R07_Istanbul,
		R09_Berlin,
		R10_London,
		R11_Paris,
		R12_Shanghai,
		R13_Cancun,
		R14_Prague,
	}
}

func (r Revision) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

var revisionNameToValue = func() map[string]Revision {
	m := make(map[string]Revision, len(revisionNames))
	for rev, name := range revisionNames {
		m[name] = rev
	}
	return m
}()

func (r *Revision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if revision, ok := revisionNameToValue[s]; ok {
		*r = revision
		return nil
	}

	// read Revision(X) format and extract the number.
	reg := regexp.MustCompile(`Revision\(([0-9]+)\)`)
	substring := reg.FindAllStringSubmatch(s, 1)
	if substring == nil {
		return &json.UnmarshalTypeError{Value: s, Type: nil}
	}
	revInt, err := strconv.Atoi(substring[0][1])
	if err != nil {
		return err
	}
	*r = Revision(revInt)
	return nil
}
