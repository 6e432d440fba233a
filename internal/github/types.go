package github

// File is a repository file fetched through the contents API, with its
// content already base64-decoded. SHA is the blob revision marker required
// to update the file without clobbering a concurrent edit.
type File struct {
	Path    string
	SHA     string
	Content []byte
}

// contentResponse is the wire shape of the contents API.
type contentResponse struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// refResponse is the wire shape of the git ref API.
type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// PutFileOptions describes a create-or-update of a repository file.
type PutFileOptions struct {
	Path    string
	Message string
	Content []byte
	Branch  string

	// SHA is the prior blob revision when updating an existing file.
	// Leave empty when creating. A mismatch is a hard conflict, not retried.
	SHA string
}

// NewPull describes a pull request to open.
type NewPull struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequest is the subset of the pulls API response the server uses.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}
