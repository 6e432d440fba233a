package domain

// ContributionDraft is the transient form state of one contribution.
// It lives only on the submitting side until it passes validation; the
// server never trusts it and re-validates with the same rules.
type ContributionDraft struct {
	CompanyName     string   `json:"companyName"`
	ResourceURL     string   `json:"resourceUrl"`
	ResourceTitle   string   `json:"resourceTitle"`
	ResourceType    string   `json:"resourceType"`
	Industry        string   `json:"industry"`
	ContributorName string   `json:"contributorName"`
	Topics          []string `json:"topics"`
	GithubUsername  string   `json:"githubUsername,omitempty"`
}

// Attribution returns the submitter credit line for the pull request body:
// an @-mention when a GitHub handle was provided, otherwise the free-text
// contributor name.
func (d ContributionDraft) Attribution() string {
	if d.GithubUsername != "" {
		return "@" + d.GithubUsername
	}
	return d.ContributorName
}
