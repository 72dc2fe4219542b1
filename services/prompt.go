package services

// LLM prompt templates, data only.

const prioritizeSystemPrompt = `You are an AI expert in finding music online. You respond with JSON only.`

// prioritizePrompt builds the best search query and platform for the user's criteria.
// Args: artists, genre, year.
const prioritizePrompt = `Your goal is to construct the best possible search query for a search engine to find downloadable, high-quality songs based on user input.

User Input:
- Artist(s): %s
- Genre: %s
- Year(s): %s

Based on the input, determine the most effective search query and the best platform (like YouTube, SoundCloud, etc.) to find the music. The search query should be optimized for finding lists of popular songs or full albums.

Respond with a JSON object with exactly these fields:
{"searchQuery": "the search query to use", "source": "the platform or type of site to search within"}`
