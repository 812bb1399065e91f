package source

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shanehull/peownership/internal/model"
)

const (
	subcategoriesSelector = "#mw-subcategories"
	pagesSelector         = "#mw-pages"

	categoryMarker = "/wiki/Category:"
	articlePrefix  = "/wiki/"
)

// ErrSectionNotFound means the page has no container for the requested
// listing. Callers treat it as an empty result, not a failure.
var ErrSectionNotFound = errors.New("section not found")

var portfolioSuffixRe = regexp.MustCompile(`(?i)\s+portfolio companies$`)

// ExtractSubcategories reads the sub-category links of a category page as
// owner candidates, in document order.
func ExtractSubcategories(doc *goquery.Document, base *url.URL) ([]model.OwnerCandidate, error) {
	section := doc.Find(subcategoriesSelector).First()
	if section.Length() == 0 {
		return nil, ErrSectionNotFound
	}

	var owners []model.OwnerCandidate
	section.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, categoryMarker) {
			return
		}
		abs, ok := resolve(base, href)
		if !ok {
			return
		}

		label := strings.TrimSpace(a.Text())
		owners = append(owners, model.OwnerCandidate{
			DisplayName:      portfolioSuffixRe.ReplaceAllString(label, ""),
			SourceURL:        abs,
			RawCategoryLabel: label,
		})
	})
	return owners, nil
}

// ExtractMemberPages reads the article links listed under a category page.
// Links into other namespaces (Category:, Special:, ...) are skipped.
func ExtractMemberPages(doc *goquery.Document, base *url.URL) ([]model.MemberPage, error) {
	section := doc.Find(pagesSelector).First()
	if section.Length() == 0 {
		return nil, ErrSectionNotFound
	}

	var pages []model.MemberPage
	section.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, articlePrefix) || strings.Contains(href, ":") {
			return
		}
		abs, ok := resolve(base, href)
		if !ok {
			return
		}
		pages = append(pages, model.MemberPage{
			Name: strings.TrimSpace(a.Text()),
			URL:  abs,
		})
	})
	return pages, nil
}

// NextPageURL returns the "next page" link of a paginated member listing.
func NextPageURL(doc *goquery.Document, base *url.URL) (string, bool) {
	var next string
	doc.Find(pagesSelector).First().Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(a.Text()), "next page") {
			return true
		}
		href, _ := a.Attr("href")
		if abs, ok := resolve(base, href); ok {
			next = abs
			return false
		}
		return true
	})
	return next, next != ""
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
