package index

// Posting links a term to one post containing it.
type Posting struct {
	PostID    string
	Frequency int
	Positions []int
}

// PostingList is the ordered (by PostID) list of posts containing a term.
type PostingList []Posting

// TermEntry is one inverted-index row: a term, its postings, and the number
// of posts containing it.
type TermEntry struct {
	Term     string
	Postings PostingList
	DocFreq  int
}
