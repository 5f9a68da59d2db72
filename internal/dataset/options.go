package dataset

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/sola"
)

// OtherSectionID is the id of the synthetic section collecting passage
// types without subtypes.
const OtherSectionID = -1

// OptionNode is a filter option tree node.
type OptionNode = Node[sola.Vocabulary]

func vocabularyParent(v sola.Vocabulary) (int, bool) {
	return v.ParentID()
}

func otherLeaf(parent *OptionNode, label string) *OptionNode {
	return &OptionNode{
		ID:        parent.ID,
		Item:      sola.Vocabulary{ID: parent.ID, Name: label},
		Synthetic: true,
	}
}

// TopicsTree builds the passage topic tree. Every root with children gets
// an extra "Other" leaf carrying the root's own id, standing for passages
// filed directly under the root, unless such a child already exists.
func TopicsTree(topics map[int]sola.Vocabulary, otherLabel string) []*OptionNode {
	roots := BuildTree(topics, vocabularyParent)
	for _, root := range roots {
		if len(root.Children) == 0 || root.HasChild(root.ID) {
			continue
		}
		root.Children = append(root.Children, otherLeaf(root, otherLabel))
	}
	return roots
}

// TypesTree builds the passage type tree. Roots with children get the
// same "Other" leaf as topics and are placed in front, so they appear in
// reverse id order. Childless roots are collected into one "Other"
// section with id OtherSectionID, always last. A root that already has
// id OtherSectionID is reused as that section.
func TypesTree(types map[int]sola.Vocabulary, otherLabel string) []*OptionNode {
	roots := BuildTree(types, vocabularyParent)

	var other *OptionNode
	for _, root := range roots {
		if root.ID == OtherSectionID {
			other = root
			break
		}
	}
	if other == nil {
		other = &OptionNode{
			ID:        OtherSectionID,
			Item:      sola.Vocabulary{ID: OtherSectionID, Name: otherLabel},
			Synthetic: true,
		}
	}

	result := []*OptionNode{other}
	for _, root := range roots {
		if root.ID == OtherSectionID {
			continue
		}
		if len(root.Children) == 0 {
			other.Children = append(other.Children, root)
			continue
		}
		if !root.HasChild(root.ID) {
			root.Children = append(root.Children, otherLeaf(root, otherLabel))
		}
		result = slices.Insert(result, 0, root)
	}
	return result
}

// FilterOptions are the values the passage filter can choose from.
type FilterOptions struct {
	Authors      EntityMap
	Publications EntityMap
	Topics       map[int]sola.Vocabulary
	Types        map[int]sola.Vocabulary
}

// OptionsTree holds the hierarchical topic and type options.
type OptionsTree struct {
	Topics []*OptionNode
	Types  []*OptionNode
}

// Tree builds both option trees.
func (o *FilterOptions) Tree(otherLabel string) OptionsTree {
	return OptionsTree{
		Topics: TopicsTree(o.Topics, otherLabel),
		Types:  TypesTree(o.Types, otherLabel),
	}
}

// FilterOptions fetches authors (all persons), publications, passage
// topics and passage types.
func (s *Service) FilterOptions(ctx context.Context, locale string) (*FilterOptions, error) {
	query := s.pageQuery()

	topics, err := s.vocabulary(ctx, OpTopics, locale, query, s.repo.PassageTopics)
	if err != nil {
		return nil, err
	}
	types, err := s.vocabulary(ctx, OpTypes, locale, query, s.repo.PassageTypes)
	if err != nil {
		return nil, err
	}
	persons, err := s.EntitiesOfType(ctx, sola.Person, locale)
	if err != nil {
		return nil, err
	}
	publications, err := s.EntitiesOfType(ctx, sola.Publication, locale)
	if err != nil {
		return nil, err
	}

	return &FilterOptions{
		Authors:      persons,
		Publications: publications,
		Topics:       topics,
		Types:        types,
	}, nil
}

type vocabularyFunc func(ctx context.Context, locale string, query sola.Query) (*sola.Results[sola.Vocabulary], error)

func (s *Service) vocabulary(ctx context.Context, op, locale string, query sola.Query, fetch vocabularyFunc) (map[int]sola.Vocabulary, error) {
	entries, err := cache.Fetch(ctx, s.cache, key(op, locale, query), func(ctx context.Context) ([]sola.Vocabulary, error) {
		res, err := fetch(ctx, locale, query)
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[int]sola.Vocabulary, len(entries))
	for _, v := range entries {
		out[v.ID] = v
	}
	return out, nil
}

// SortByName returns the entities ordered by name using the collation
// rules of locale, falling back to id for equal names.
func SortByName(m EntityMap, locale string) []sola.Entity {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.German
	}
	collator := collate.New(tag, collate.IgnoreCase)

	out := m.Sorted()
	slices.SortStableFunc(out, func(a, b sola.Entity) int {
		if c := collator.CompareString(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out
}
