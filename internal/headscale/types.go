package headscale

import "github.com/agentstation/meshdns/pkg/inventory"

// The API responses are much larger; only the fields meshdns uses are decoded.

type listUsersResponse struct {
	Users []apiUser `json:"users"`
}

type apiUser struct {
	Name string `json:"name"`
}

func (u apiUser) toUser() inventory.User {
	return inventory.User{Name: u.Name}
}

type listNodesResponse struct {
	Nodes []apiNode `json:"nodes"`
}

type apiNode struct {
	IPAddresses []string `json:"ipAddresses"`
	GivenName   string   `json:"givenName"`
	User        apiUser  `json:"user"`
	Online      bool     `json:"online"`
}

func (n apiNode) toNode() inventory.Node {
	return inventory.Node{
		Addresses:   append([]string(nil), n.IPAddresses...),
		DisplayName: n.GivenName,
		Owner:       n.User.toUser(),
		Online:      n.Online,
	}
}
