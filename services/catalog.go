package services

import "retroriff/types"

// catalog is the fixed set of candidate songs used in place of a real search index
var catalog = []types.Song{
	{ID: 1, Title: "Bohemian Rhapsody", Artist: "Queen", Popularity: 95},
	{ID: 2, Title: "Like a Rolling Stone", Artist: "Bob Dylan", Popularity: 92},
	{ID: 3, Title: "Stairway to Heaven", Artist: "Led Zeppelin", Popularity: 98},
	{ID: 4, Title: "Smells Like Teen Spirit", Artist: "Nirvana", Popularity: 90},
	{ID: 5, Title: "Hotel California", Artist: "Eagles", Popularity: 88},
	{ID: 6, Title: "Sweet Child O' Mine", Artist: "Guns N' Roses", Popularity: 85},
	{ID: 7, Title: "Imagine", Artist: "John Lennon", Popularity: 89},
	{ID: 8, Title: "Billie Jean", Artist: "Michael Jackson", Popularity: 93},
}

// Catalog returns a copy of the fixed song catalog
func Catalog() []types.Song {
	songs := make([]types.Song, len(catalog))
	copy(songs, catalog)
	return songs
}
