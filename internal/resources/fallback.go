// Package resources provides the deterministic learning-resources fallback.
//
// When the generative model is unavailable, or its output cannot be parsed
// into the structured resource format, the service substitutes a curated
// resource set chosen by naive keyword classification of the question into
// Mathematics / Science / History / Literature / General. The generator is
// a pure function of keyword counts: the same question text always yields
// the same categorized resource set.
package resources

import (
	"sort"
	"strings"
)

// Link is a single external learning resource.
type Link struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Resource groups links under a topic heading.
type Resource struct {
	Topic string `json:"topic"`
	Links []Link `json:"links"`
}

// Subject categories recognized by the keyword classifier.
const (
	CategoryMath       = "Mathematics"
	CategoryScience    = "Science"
	CategoryHistory    = "History"
	CategoryLiterature = "Literature"
	CategoryGeneral    = "General"
)

// categoryOrder fixes tie-breaking so classification is deterministic.
var categoryOrder = []string{CategoryMath, CategoryScience, CategoryHistory, CategoryLiterature}

var categoryKeywords = map[string][]string{
	CategoryMath: {
		"equation", "solve", "calculate", "math", "algebra", "geometry", "calculus",
		"trigonometry", "function", "graph", "number", "polynomial", "factor",
		"derivative", "integral", "arithmetic", "sequence", "series", "probability",
		"statistics",
	},
	CategoryScience: {
		"physics", "chemistry", "biology", "science", "experiment", "lab",
		"molecule", "atom", "cell", "force", "energy", "reaction", "organism",
		"ecosystem", "gravity", "motion", "velocity", "acceleration", "mass", "volume",
	},
	CategoryHistory: {
		"history", "war", "revolution", "century", "ancient", "medieval",
		"civilization", "empire", "king", "queen", "president", "government",
		"nation", "country", "timeline", "era", "period", "historical",
	},
	CategoryLiterature: {
		"literature", "book", "novel", "poem", "poetry", "author", "writer",
		"character", "plot", "theme", "essay", "analysis", "shakespeare",
		"fiction", "nonfiction", "literary", "narrative", "story",
	},
}

var categoryResources = map[string]Resource{
	CategoryMath: {
		Topic: "Mathematics Concepts",
		Links: []Link{
			{Title: "Khan Academy - Algebra", URL: "https://www.khanacademy.org/math/algebra", Snippet: "Comprehensive lessons on solving equations and understanding algebraic concepts."},
			{Title: "Paul's Online Math Notes", URL: "https://tutorial.math.lamar.edu", Snippet: "Detailed explanations of calculus, algebra, and differential equations with examples."},
			{Title: "Wolfram Alpha", URL: "https://www.wolframalpha.com", Snippet: "Step-by-step solutions for various math problems and equations."},
		},
	},
	CategoryScience: {
		Topic: "Science Concepts",
		Links: []Link{
			{Title: "Khan Academy - Physics", URL: "https://www.khanacademy.org/science/physics", Snippet: "Detailed explanations of physics concepts with practice problems."},
			{Title: "PhET Interactive Simulations", URL: "https://phet.colorado.edu", Snippet: "Visual simulations to understand scientific concepts interactively."},
			{Title: "Crash Course Chemistry", URL: "https://www.youtube.com/playlist?list=PL8dPuuaLjXtPHzzYuWy6fYEaX9mQQ8oGr", Snippet: "Engaging video explanations of chemistry concepts."},
		},
	},
	CategoryHistory: {
		Topic: "Historical Context",
		Links: []Link{
			{Title: "Khan Academy - World History", URL: "https://www.khanacademy.org/humanities/world-history", Snippet: "Comprehensive overview of world history periods and events."},
			{Title: "Crash Course History", URL: "https://www.youtube.com/playlist?list=PL8dPuuaLjXtMwmepBjTSG593eG7ObzO7s", Snippet: "Engaging videos explaining historical events and their significance."},
			{Title: "History.com", URL: "https://www.history.com/", Snippet: "Articles and resources about key historical events and figures."},
		},
	},
	CategoryLiterature: {
		Topic: "Literary Analysis",
		Links: []Link{
			{Title: "SparkNotes", URL: "https://www.sparknotes.com/", Snippet: "Summaries and analyses of major literary works."},
			{Title: "Purdue OWL", URL: "https://owl.purdue.edu/owl/subject_specific_writing/writing_in_literature/index.html", Snippet: "Guides for literary analysis and writing about literature."},
			{Title: "LitCharts", URL: "https://www.litcharts.com/", Snippet: "Detailed analysis of themes, characters, and symbols in literary works."},
		},
	},
}

// generalResource closes every fallback set regardless of classification.
var generalResource = Resource{
	Topic: "General Learning Resources",
	Links: []Link{
		{Title: "Coursera", URL: "https://www.coursera.org/courses?query=free", Snippet: "Free courses from top universities covering various subjects."},
		{Title: "Quizlet", URL: "https://quizlet.com", Snippet: "Create flashcards and practice tests for effective studying."},
		{Title: "YouTube EDU", URL: "https://www.youtube.com/education", Snippet: "Educational videos on virtually any academic topic."},
	},
}

// Classify ranks the subject categories by keyword hits in question.
// The result is ordered by descending count; ties keep the fixed category
// order, so the ranking is a pure function of the input text.
func Classify(question string) []string {
	lower := strings.ToLower(question)

	type ranked struct {
		category string
		count    int
		pos      int
	}
	counts := make([]ranked, 0, len(categoryOrder))
	for i, cat := range categoryOrder {
		n := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		counts = append(counts, ranked{category: cat, count: n, pos: i})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].pos < counts[j].pos
	})

	out := make([]string, len(counts))
	for i, r := range counts {
		out[i] = r.category
	}
	return out
}

// Fallback returns the deterministic resource set for a question: the
// curated sets of the two top-ranked categories, always closed by the
// general set. A question matching no category still gets the first two
// categories in fixed order (Mathematics, Science) plus General.
func Fallback(question string) []Resource {
	ranking := Classify(question)

	// The two highest-ranked categories are always included, even when the
	// question matched no keywords; ties keep the fixed category order.
	out := make([]Resource, 0, 3)
	for _, cat := range ranking[:2] {
		out = append(out, categoryResources[cat])
	}
	out = append(out, generalResource)
	return out
}

// Starter returns the static resource set served before any generation has
// happened (the "mock" set shown while a chat is still in progress).
func Starter() []Resource {
	return []Resource{
		{
			Topic: CategoryMath,
			Links: []Link{
				{Title: "Khan Academy - Math", URL: "https://www.khanacademy.org/math", Snippet: "Free world-class education in mathematics."},
				{Title: "Wolfram Alpha", URL: "https://www.wolframalpha.com", Snippet: "Computational intelligence for math problems."},
			},
		},
		{
			Topic: "Study Resources",
			Links: []Link{
				{Title: "YouTube Educational Videos", URL: "https://www.youtube.com/results?search_query=educational+math", Snippet: "Video tutorials explaining various concepts."},
			},
		},
	}
}

// RenderMarkdown formats a resource set as the markdown document stored in
// the chat's resources message.
func RenderMarkdown(set []Resource) string {
	var b strings.Builder
	b.WriteString("## Educational Resources for Your Problem\n\n")
	for _, r := range set {
		b.WriteString("### " + r.Topic + "\n")
		for _, l := range r.Links {
			b.WriteString("- **[" + l.Title + "](" + l.URL + ")**")
			if l.Snippet != "" {
				b.WriteString(" - " + l.Snippet)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
