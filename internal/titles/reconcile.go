package titles

// Reconciliation is the outcome of comparing a remote playlist with a local song list.
type Reconciliation struct {
	OnlyInLocal   []string // local entries with no remote counterpart, in local order
	OnlyInRemote  []string // remote entries with no local counterpart, in remote order
	Matched       int      // distinct entries present on both sides
	LocalRemoved  int      // duplicates dropped from the local side before comparing
	RemoteRemoved int      // duplicates dropped from the remote side before comparing
}

// Reconcile compares remote and local entries by identity after deduplicating each side.
//
// It only computes: neither input is modified and nothing outside the returned value changes.
// Swapping the arguments swaps OnlyInLocal with OnlyInRemote and LocalRemoved with RemoteRemoved.
func (n *Normalizer) Reconcile(remote, local []string) Reconciliation {
	remoteKept, remoteRemoved := n.Dedupe(remote)
	localKept, localRemoved := n.Dedupe(local)

	remoteIDs := n.identitySet(remoteKept)
	localIDs := n.identitySet(localKept)

	result := Reconciliation{
		OnlyInLocal:   []string{},
		OnlyInRemote:  []string{},
		LocalRemoved:  localRemoved,
		RemoteRemoved: remoteRemoved,
	}

	for _, entry := range localKept {
		if _, ok := remoteIDs[n.Identity(entry)]; ok {
			result.Matched++
		} else {
			result.OnlyInLocal = append(result.OnlyInLocal, entry)
		}
	}

	for _, entry := range remoteKept {
		if _, ok := localIDs[n.Identity(entry)]; !ok {
			result.OnlyInRemote = append(result.OnlyInRemote, entry)
		}
	}

	return result
}

func (n *Normalizer) identitySet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[n.Identity(e)] = struct{}{}
	}
	return set
}
