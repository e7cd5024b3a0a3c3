// Package auth decides which callers may run administrative operations.
package auth

// StaticAuthorizer grants roles from fixed caller lists. Admins may also run
// auction operations.
type StaticAuthorizer struct {
	admins        map[string]struct{}
	auctionAdmins map[string]struct{}
}

func NewStaticAuthorizer(admins, auctionAdmins []string) *StaticAuthorizer {
	return &StaticAuthorizer{
		admins:        toSet(admins),
		auctionAdmins: toSet(auctionAdmins),
	}
}

func (a *StaticAuthorizer) IsAdmin(caller string) bool {
	_, ok := a.admins[caller]
	return ok
}

func (a *StaticAuthorizer) IsAuctionAdmin(caller string) bool {
	if a.IsAdmin(caller) {
		return true
	}
	_, ok := a.auctionAdmins[caller]
	return ok
}

func toSet(callers []string) map[string]struct{} {
	set := make(map[string]struct{}, len(callers))
	for _, c := range callers {
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
