package ceremony

import "github.com/kysee/groth16-ceremony/curve"

// VerifyingKey is the Groth16 verifying key under construction: the part of
// the SRS an outside verifier needs, independent of the proving key's large
// query vectors.
type VerifyingKey struct {
	AlphaG1    curve.G1Affine
	BetaG2     curve.G2Affine
	GammaG2    curve.G2Affine
	DeltaG2    curve.G2Affine
	GammaABCG1 []curve.G1Affine
}

func (vk *VerifyingKey) clone() VerifyingKey {
	out := *vk
	out.GammaABCG1 = append([]curve.G1Affine(nil), vk.GammaABCG1...)
	return out
}

func (vk *VerifyingKey) equal(o *VerifyingKey) bool {
	if !vk.AlphaG1.Equal(&o.AlphaG1) || !vk.BetaG2.Equal(&o.BetaG2) ||
		!vk.GammaG2.Equal(&o.GammaG2) || !vk.DeltaG2.Equal(&o.DeltaG2) {
		return false
	}
	return equalG1Slice(vk.GammaABCG1, o.GammaABCG1)
}

// ProvingKey is the evolving Groth16 SRS: the verifying key plus the large
// per-variable query vectors (§3).
type ProvingKey struct {
	VK       VerifyingKey
	BetaG1   curve.G1Affine
	DeltaG1  curve.G1Affine
	AQuery   []curve.G1Affine
	BG1Query []curve.G1Affine
	BG2Query []curve.G2Affine
	HQuery   []curve.G1Affine
	LQuery   []curve.G1Affine
}

// Clone deep-copies a ProvingKey: MPCParameters values never share
// backing arrays.
func (pk *ProvingKey) Clone() ProvingKey {
	return ProvingKey{
		VK:       pk.VK.clone(),
		BetaG1:   pk.BetaG1,
		DeltaG1:  pk.DeltaG1,
		AQuery:   append([]curve.G1Affine(nil), pk.AQuery...),
		BG1Query: append([]curve.G1Affine(nil), pk.BG1Query...),
		BG2Query: append([]curve.G2Affine(nil), pk.BG2Query...),
		HQuery:   append([]curve.G1Affine(nil), pk.HQuery...),
		LQuery:   append([]curve.G1Affine(nil), pk.LQuery...),
	}
}

// Equal reports whether two proving keys are field-wise identical.
func (pk *ProvingKey) Equal(o *ProvingKey) bool {
	if !pk.VK.equal(&o.VK) {
		return false
	}
	if !pk.BetaG1.Equal(&o.BetaG1) || !pk.DeltaG1.Equal(&o.DeltaG1) {
		return false
	}
	return equalG1Slice(pk.AQuery, o.AQuery) &&
		equalG1Slice(pk.BG1Query, o.BG1Query) &&
		equalG2Slice(pk.BG2Query, o.BG2Query) &&
		equalG1Slice(pk.HQuery, o.HQuery) &&
		equalG1Slice(pk.LQuery, o.LQuery)
}

// QueryParameters is the stable portion shared by every chunk of a chunked
// ceremony: the verifying key plus the A/B query vectors, with no H/L
// entries (§4.1).
type QueryParameters struct {
	VK       VerifyingKey
	BetaG1   curve.G1Affine
	DeltaG1  curve.G1Affine
	AQuery   []curve.G1Affine
	BG1Query []curve.G1Affine
	BG2Query []curve.G2Affine
}

func equalG1Slice(a, b []curve.G1Affine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

func equalG2Slice(a, b []curve.G2Affine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}
