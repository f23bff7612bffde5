package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeSignatureHash computes a deterministic hash of a definition's
// semantic identity: name, kind, visibility, parameter list, type
// parameter list (spec.md §4.6 "signature" used for blast-radius
// comparison). Location never affects the hash, so moving a definition
// within its file without otherwise changing it does not trigger
// re-resolution of its dependents.
func ComputeSignatureHash(name, kind, visibility string, params []*Param, typeParams []*Param) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "visibility:%s\n", visibility)

	pkeys := make([]*Param, len(params))
	copy(pkeys, params)
	sort.Slice(pkeys, func(i, j int) bool { return pkeys[i].Ordinal < pkeys[j].Ordinal })
	for _, p := range pkeys {
		fmt.Fprintf(h, "param:%s:%d:%s:%v:%v\n", p.Name, p.Ordinal, p.TypeExpr, p.IsReceiver, p.IsReturn)
	}

	tkeys := make([]*Param, len(typeParams))
	copy(tkeys, typeParams)
	sort.Slice(tkeys, func(i, j int) bool { return tkeys[i].Ordinal < tkeys[j].Ordinal })
	for _, tp := range tkeys {
		fmt.Fprintf(h, "typeparam:%s:%d\n", tp.Name, tp.Ordinal)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
