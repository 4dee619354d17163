package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/model"
)

const DefaultReferenceRateURL = "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"

// ReferenceRateClient reads the central bank key rate from its SOAP service.
type ReferenceRateClient struct {
	httpClient *http.Client
	endpoint   string
	margin     float64
	logger     *logrus.Logger
	now        func() time.Time
}

func NewReferenceRateClient(endpoint string, margin float64, logger *logrus.Logger) *ReferenceRateClient {
	if endpoint == "" {
		endpoint = DefaultReferenceRateURL
	}
	return &ReferenceRateClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: endpoint,
		margin:   margin,
		logger:   logger,
		now:      time.Now,
	}
}

// buildKeyRateRequest asks for the key rate over the last 30 days
func buildKeyRateRequest(now time.Time) string {
	fromDate := now.AddDate(0, 0, -30).Format("2006-01-02")
	toDate := now.Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
        <soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
            <soap12:Body>
                <KeyRate xmlns="http://web.cbr.ru/">
                    <fromDate>%s</fromDate>
                    <ToDate>%s</ToDate>
                </KeyRate>
            </soap12:Body>
        </soap12:Envelope>`, fromDate, toDate)
}

func (c *ReferenceRateClient) send(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("key rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key rate service answered %s", resp.Status)
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read key rate response: %w", err)
	}
	return rawBody, nil
}

// parseKeyRate extracts the most recent rate from the SOAP response
func parseKeyRate(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse key rate XML: %w", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return 0, errors.New("no key rate data in response")
	}

	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, errors.New("key rate response has no <Rate> element")
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(rateElement.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key rate %q: %w", rateElement.Text(), err)
	}
	return rate, nil
}

// GetReferenceRate returns the key rate and the annual rate suggested on top
// of it. It is informational and never fills in a missing client rate.
func (c *ReferenceRateClient) GetReferenceRate(ctx context.Context) (*model.ReferenceRate, error) {
	c.logger.WithField("endpoint", c.endpoint).Debug("Requesting key rate")

	rawBody, err := c.send(ctx, buildKeyRateRequest(c.now()))
	if err != nil {
		c.logger.WithError(err).Error("Key rate request failed")
		return nil, err
	}

	rate, err := parseKeyRate(rawBody)
	if err != nil {
		c.logger.WithError(err).Error("Failed to parse key rate response")
		return nil, err
	}

	c.logger.WithField("key_rate", rate).Info("Key rate received")
	return &model.ReferenceRate{
		Source:              c.endpoint,
		KeyRate:             rate,
		Margin:              c.margin,
		SuggestedAnnualRate: math.Round((rate+c.margin)*100) / 100,
	}, nil
}
