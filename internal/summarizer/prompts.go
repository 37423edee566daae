package summarizer

import (
	"fmt"
	"os"
	"strings"

	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

// Placeholder is replaced by the chunk text or the joined chunk summaries.
const Placeholder = "{TEXT}"

const defaultChunkPrompt = `Résumez cette session de D&D sous forme de récit narratif. Concentrez-vous sur :

- L'histoire et la progression narrative
- Les actions des personnages et leurs conséquences
- Les rencontres importantes (PNJ, monstres, événements)
- Les éléments de roleplay et développement des personnages
- Les découvertes importantes (objets, indices, révélations)
- Les combats et défis mémorables
- Les décisions cruciales prises par le groupe

Rédigez un récit captivant comme si vous racontiez une aventure épique, en gardant les détails importants pour la continuité de la campagne. Environ 250-400 mots, EN FRANÇAIS.

Session D&D :
{TEXT}

Récit de la session :`

const defaultFinalPrompt = `Créez un récit final captivant à partir de ces résumés de parties d'une session D&D :

{TEXT}

Rédigez une narration cohérente et engageante qui :
- Raconte l'histoire complète de la session de manière fluide
- Maintient la chronologie des événements
- Préserve tous les détails importants pour la continuité de la campagne
- Met en valeur les moments héroïques et les développements de personnages
- Capture l'esprit de l'aventure et l'ambiance de la table
- Fait environ 500-800 mots
- EST ÉCRIT EN FRANÇAIS sous forme de récit narratif

Récit complet de la session :`

// DefaultChunkPrompt returns the built-in chunk-level template.
func DefaultChunkPrompt() string { return defaultChunkPrompt }

// DefaultFinalPrompt returns the built-in reduce template.
func DefaultFinalPrompt() string { return defaultFinalPrompt }

// Prompts holds the chunk and reduce templates. Empty fields fall back to the
// built-in defaults.
type Prompts struct {
	Chunk string
	Final string
}

func (p Prompts) chunk() string {
	if p.Chunk == "" {
		return defaultChunkPrompt
	}
	return p.Chunk
}

func (p Prompts) final() string {
	if p.Final == "" {
		return defaultFinalPrompt
	}
	return p.Final
}

// BuildPrompt substitutes the first {TEXT} in tmpl with text, verbatim.
func BuildPrompt(tmpl, text string) string {
	return strings.Replace(tmpl, Placeholder, text, 1)
}

// LoadPrompts reads custom templates from disk. An empty path keeps the default.
func LoadPrompts(chunkFile, finalFile string) (Prompts, error) {
	var p Prompts
	var err error
	if p.Chunk, err = readTemplate(chunkFile); err != nil {
		return Prompts{}, err
	}
	if p.Final, err = readTemplate(finalFile); err != nil {
		return Prompts{}, err
	}
	return p, nil
}

func readTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	tmpl := string(data)
	if !strings.Contains(tmpl, Placeholder) {
		return "", narrerr.Input("prompts", fmt.Sprintf("%s has no %s placeholder", path, Placeholder))
	}
	return tmpl, nil
}
