package scraper

// X.com DOM selectors. X changes its markup often; update these when
// scraping breaks.
const PrimaryColumn = `[data-testid="primaryColumn"]`

// extractJS collects every rendered post on the search page. Selectors are
// inlined because the script runs in the page.
const extractJS = `
(function() {
	const metric = (el, testId) => {
		const m = el.querySelector('[data-testid="' + testId + '"]');
		if (!m) return '0';
		const label = m.getAttribute('aria-label');
		if (label) {
			const match = label.match(/^([\d,.]+[KkMm]?)/);
			return match ? match[1] : '0';
		}
		return (m.textContent || '').trim() || '0';
	};

	const results = [];
	document.querySelectorAll('article[data-testid="tweet"]').forEach(el => {
		try {
			const link = el.querySelector('a[href*="/status/"]');
			const id = link?.href?.match(/status\/(\d+)/)?.[1];
			if (!id) return;

			let username = '';
			const handle = el.querySelector('[data-testid="User-Name"] a[href^="/"]');
			if (handle) username = (handle.getAttribute('href') || '').replace('/', '');

			const social = (el.querySelector('[data-testid="socialContext"]')?.textContent || '').toLowerCase();

			results.push({
				id,
				username,
				text: el.querySelector('[data-testid="tweetText"]')?.textContent || '',
				timestamp: el.querySelector('time')?.getAttribute('datetime') || '',
				replies: metric(el, 'reply'),
				retweets: metric(el, 'retweet'),
				likes: metric(el, 'like'),
				views: el.querySelector('a[href*="/analytics"]')?.getAttribute('aria-label')?.match(/^([\d,.]+[KkMm]?)/)?.[1] || '0',
				isRepost: social.includes('repost') || social.includes('retweeted'),
			});
		} catch (e) {
			console.error('Error extracting post:', e);
		}
	});
	return results;
})()
`
