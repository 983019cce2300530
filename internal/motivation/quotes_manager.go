package motivation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

type QuotesManager struct {
	Quotes       []*Quote
	GenresQuotes map[string][]*Quote
}

func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{}
	qm.GenresQuotes = make(map[string][]*Quote)

	log.Println("reading motivation quotes CSV ...")

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		// QUOTE;AUTHOR;GENRE
		quote := NewQuote(record[0], record[1], record[2])
		qm.Quotes = append(qm.Quotes, quote)
		qm.GenresQuotes[quote.Genre] = append(qm.GenresQuotes[quote.Genre], quote)
	}

	if len(qm.Quotes) == 0 {
		return nil, errors.New("no quotes found in csv")
	}

	log.Printf("motivation quotes CSV read %d quotes", len(qm.Quotes))

	return qm, nil
}

func (qm *QuotesManager) RandomQuote() *Quote {
	index := rand.Float64() * float64(len(qm.Quotes))
	return qm.Quotes[int(index)]
}

// RandomQuoteForGenre falls back to the whole pool for an unknown genre,
// the trainee always gets a quote back.
func (qm *QuotesManager) RandomQuoteForGenre(genre string) *Quote {
	genreQuotes, ok := qm.GenresQuotes[genre]
	if !ok || len(genreQuotes) == 0 {
		return qm.RandomQuote()
	}
	index := rand.Float64() * float64(len(genreQuotes))
	return genreQuotes[int(index)]
}
